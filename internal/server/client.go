package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/logger"
	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	// 超速警告达到该次数后断开
	maxRateWarnings = 5
)

// outbound 待写出的帧
type outbound struct {
	frameType int // websocket.TextMessage 或 websocket.BinaryMessage
	data      []byte
}

// Client 代表一个连接的玩家
//
// 客户端发送二进制帧后，服务端也改用 protobuf 二进制帧回复；此前使用 JSON 文本帧。
type Client struct {
	ID       string // 玩家唯一 ID
	Name     string // 玩家昵称
	RoomCode string // 当前所在房间
	IP       string // 客户端 IP 地址

	server *Server
	conn   *websocket.Conn
	send   chan outbound
	binary atomic.Bool

	mu     sync.RWMutex
	closed bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.NewString(),
		Name:   GenerateNickname(),
		server: s,
		conn:   conn,
		send:   make(chan outbound, 256),
	}
}

// ReadPump 从 WebSocket 读取消息
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		frameType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("player_id", c.GetID()).Msg("websocket read error")
			}
			return
		}

		allowed, warning := c.server.messageLimiter.AllowMessage(c.GetID())
		if !allowed {
			log.Warn().Str("player", c.GetName()).Str("ip", c.IP).Msg("message rate exceeded")
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "消息发送过于频繁"))
			if c.server.messageLimiter.GetWarningCount(c.GetID()) > maxRateWarnings {
				log.Warn().Str("player", c.GetName()).Msg("disconnecting client after repeated rate violations")
				return
			}
			continue
		}
		if warning {
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "请求过于频繁，请放慢速度"))
		}

		msg, err := c.decode(frameType, data)
		if err != nil {
			log.Debug().Err(err).Str("player_id", c.GetID()).Msg("decode message failed")
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}

		c.server.handler.Handle(c, msg)
	}
}

// decode 按帧类型解码，并记住客户端使用的编码
func (c *Client) decode(frameType int, data []byte) (*protocol.Message, error) {
	if frameType == websocket.BinaryMessage {
		c.binary.Store(true)
		return codec.Decode(data)
	}
	return codec.DecodeJSON(data)
}

// WritePump 向 WebSocket 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case out, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(out.frameType, out.data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送消息给客户端，缓冲区满时断开连接
func (c *Client) SendMessage(msg *protocol.Message) {
	out := outbound{frameType: websocket.TextMessage}
	var err error
	if c.binary.Load() {
		out.frameType = websocket.BinaryMessage
		out.data, err = codec.Encode(msg)
	} else {
		out.data, err = codec.EncodeJSON(msg)
	}
	if err != nil {
		log.Error().Err(err).Str("type", string(msg.Type)).Msg("encode message failed")
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.send <- out:
	default:
		log.Warn().Str("player_id", c.ID).Msg("send buffer full, closing client")
		go c.Close()
	}
}

// handleDisconnect 处理断开连接，保留会话与座位等待重连
func (c *Client) handleDisconnect() {
	id := c.GetID()
	c.server.messageLimiter.RemoveClient(id)
	c.Close()

	// 已被重连的新连接接管时不改变玩家状态
	if !c.server.unregisterClient(c) {
		return
	}

	c.server.sessionManager.SetOffline(id)
	if c.GetRoom() != "" {
		c.server.roomManager.NotifyPlayerOffline(c)
	}
}

// Close 关闭客户端连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// GetID 获取玩家 ID
func (c *Client) GetID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ID
}

// GetName 获取玩家昵称
func (c *Client) GetName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Name
}

// SetIdentity 重连成功后接管原玩家身份
func (c *Client) SetIdentity(id, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ID, c.Name = id, name
}

// SetRoom 设置客户端所在房间
func (c *Client) SetRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RoomCode = code
}

// GetRoom 获取客户端所在房间
func (c *Client) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.RoomCode
}
