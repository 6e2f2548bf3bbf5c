package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 心跳检测间隔
	heartbeatInterval = 5 * time.Second
	// 最大重连次数
	maxReconnectAttempts = 5
	// 默认重连间隔，之后指数退避
	defaultReconnectInterval = 2 * time.Second
	// 退避上限
	maxReconnectBackoff = 30 * time.Second
)

var (
	ErrNotConnected     = errors.New("client: not connected")
	ErrSendBufferFull   = errors.New("client: send buffer full")
	ErrReceiveTimeout   = errors.New("client: receive timeout")
	ErrNoReconnectToken = errors.New("client: no reconnect token")
)

// Client 拍卖服务的 WebSocket 客户端
//
// 客户端始终发送 protobuf 二进制帧；服务端在收到第一个二进制帧之前
// 使用 JSON 文本帧，读取时按帧类型分别解码。
type Client struct {
	ServerURL string

	// 断线后是否自动使用重连令牌恢复
	AutoReconnect     bool
	ReconnectInterval time.Duration

	// 回调在读协程中执行，不能阻塞
	OnMessage      func(*protocol.Message)
	OnError        func(error)
	OnClose        func()
	OnReconnect    func()
	OnReconnecting func(attempt, maxAttempts int)

	conn    *websocket.Conn
	send    chan []byte
	receive chan *protocol.Message
	done    chan struct{}

	playerID       string
	playerName     string
	reconnectToken string

	latency        atomic.Int64 // 毫秒
	reconnecting   atomic.Bool
	reconnectCount atomic.Int32

	mu     sync.RWMutex
	closed bool
}

// NewClient 创建客户端
func NewClient(serverURL string) *Client {
	return &Client{
		ServerURL:         serverURL,
		AutoReconnect:     true,
		ReconnectInterval: defaultReconnectInterval,
		send:              make(chan []byte, 256),
		receive:           make(chan *protocol.Message, 256),
		done:              make(chan struct{}),
	}
}

// Connect 连接服务器并启动读写协程
func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	c.attach(conn)
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, c.ServerURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// attach 切换到新连接，每条连接有自己的 stop 通道
func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	stop := make(chan struct{})
	go c.readPump(conn, stop)
	go c.writePump(conn, stop)
}

// readPump 从服务器读取消息
func (c *Client) readPump(conn *websocket.Conn, stop chan struct{}) {
	defer c.handleReadExit(stop)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		frameType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && c.OnError != nil {
				c.OnError(err)
			}
			return
		}

		var msg *protocol.Message
		if frameType == websocket.BinaryMessage {
			msg, err = codec.Decode(data)
		} else {
			msg, err = codec.DecodeJSON(data)
		}
		if err != nil {
			log.Debug().Err(err).Msg("decode server message failed")
			continue
		}

		c.process(msg)
	}
}

func (c *Client) handleReadExit(stop chan struct{}) {
	close(stop)

	// 重连循环自行处理失败的连接
	if c.isClosed() || c.reconnecting.Load() {
		return
	}
	if c.AutoReconnect && c.ReconnectToken() != "" && !c.reconnecting.Load() {
		go c.tryReconnect()
		return
	}
	c.Close()
	if c.OnClose != nil {
		c.OnClose()
	}
}

// process 记录身份与延迟，然后交给回调与接收通道
func (c *Client) process(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgConnected:
		// 重连时服务端先分配临时身份，保留原身份等待 MsgReconnected
		if c.reconnecting.Load() {
			break
		}
		if p, err := codec.ParsePayload[protocol.ConnectedPayload](msg); err == nil {
			c.mu.Lock()
			c.playerID, c.playerName, c.reconnectToken = p.PlayerID, p.PlayerName, p.ReconnectToken
			c.mu.Unlock()
		}
	case protocol.MsgReconnected:
		if p, err := codec.ParsePayload[protocol.ReconnectedPayload](msg); err == nil {
			c.mu.Lock()
			c.playerID, c.playerName = p.PlayerID, p.PlayerName
			c.mu.Unlock()
		}
		c.reconnecting.Store(false)
		c.reconnectCount.Store(0)
		if c.OnReconnect != nil {
			c.OnReconnect()
		}
	case protocol.MsgPong:
		if p, err := codec.ParsePayload[protocol.PongPayload](msg); err == nil {
			c.latency.Store(time.Now().UnixMilli() - p.ClientTimestamp)
		}
	}

	if c.OnMessage != nil {
		c.OnMessage(msg)
	}

	select {
	case c.receive <- msg:
	default:
		log.Warn().Str("type", string(msg.Type)).Msg("receive buffer full, message dropped")
	}
}

// writePump 向服务器写入消息
func (c *Client) writePump(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-stop:
			return
		case <-c.done:
			return
		}
	}
}

// SendMessage 发送消息
func (c *Client) SendMessage(msg *protocol.Message) error {
	data, err := codec.Encode(msg)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || c.conn == nil {
		return ErrNotConnected
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Receive 阻塞读取下一条消息
func (c *Client) Receive() (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-c.done:
		return nil, ErrNotConnected
	}
}

// ReceiveWithTimeout 带超时读取下一条消息
func (c *Client) ReceiveWithTimeout(timeout time.Duration) (*protocol.Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-c.receive:
		return msg, nil
	case <-timer.C:
		return nil, ErrReceiveTimeout
	case <-c.done:
		return nil, ErrNotConnected
	}
}

// Expect 读取消息直到出现指定类型之一，其余消息被丢弃
func (c *Client) Expect(ctx context.Context, types ...protocol.MessageType) (*protocol.Message, error) {
	for {
		select {
		case msg := <-c.receive:
			for _, t := range types {
				if msg.Type == t {
					return msg, nil
				}
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.done:
			return nil, ErrNotConnected
		}
	}
}

// Close 关闭连接，不再重连
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// IsConnected 是否已连接且不在重连中
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && c.conn != nil && !c.reconnecting.Load()
}

// PlayerID 服务端分配的玩家 ID
func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// PlayerName 服务端分配的昵称
func (c *Client) PlayerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerName
}

// ReconnectToken 重连令牌
func (c *Client) ReconnectToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reconnectToken
}

// Latency 最近一次心跳的往返延迟（毫秒）
func (c *Client) Latency() int64 {
	return c.latency.Load()
}

// IsReconnecting 是否正在重连
func (c *Client) IsReconnecting() bool {
	return c.reconnecting.Load()
}
