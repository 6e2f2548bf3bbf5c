package client

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/logger"
	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
)

// Reconnect 以当前身份发送重连请求
func (c *Client) Reconnect() error {
	return c.reconnectAs(c.ReconnectToken(), c.PlayerID())
}

func (c *Client) reconnectAs(token, id string) error {
	if token == "" || id == "" {
		return ErrNoReconnectToken
	}
	return c.SendMessage(codec.MustNewMessage(protocol.MsgReconnect, protocol.ReconnectPayload{
		Token:    token,
		PlayerID: id,
	}))
}

// StartHeartbeat 定期发送心跳以更新延迟
func (c *Client) StartHeartbeat() {
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if c.IsConnected() {
					_ = c.Ping()
				}
			case <-c.done:
				return
			}
		}
	}()
}

// tryReconnect 指数退避重连，成功后以原身份恢复
func (c *Client) tryReconnect() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			c.reconnecting.Store(false)
		}
	}()

	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}

	token, id := c.ReconnectToken(), c.PlayerID()
	backoff := c.ReconnectInterval
	if backoff <= 0 {
		backoff = defaultReconnectInterval
	}

	for c.reconnectCount.Load() < maxReconnectAttempts {
		attempt := int(c.reconnectCount.Add(1))
		if c.OnReconnecting != nil {
			c.OnReconnecting(attempt, maxReconnectAttempts)
		}

		select {
		case <-time.After(backoff):
		case <-c.done:
			return
		}
		backoff = min(backoff*2, maxReconnectBackoff)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		conn, err := c.dial(ctx)
		cancel()
		if err != nil {
			log.Debug().Err(err).Int("attempt", attempt).Msg("reconnect dial failed")
			continue
		}

		c.attach(conn)
		if err := c.reconnectAs(token, id); err != nil {
			_ = conn.Close()
			continue
		}
		// 成功与否由 MsgReconnected 确认
		return
	}

	c.reconnecting.Store(false)
	c.Close()
	if c.OnClose != nil {
		c.OnClose()
	}
}
