package client

import (
	"time"

	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
)

// CreateRoom 创建房间，edition 为空时使用服务端默认版本
func (c *Client) CreateRoom(edition string) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgCreateRoom, protocol.CreateRoomPayload{Edition: edition}))
}

// JoinRoom 加入房间
func (c *Client) JoinRoom(roomCode string) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomCode: roomCode}))
}

// LeaveRoom 离开房间
func (c *Client) LeaveRoom() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgLeaveRoom, nil))
}

// Ready 准备
func (c *Client) Ready() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgReady, nil))
}

// CancelReady 取消准备
func (c *Client) CancelReady() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgCancelReady, nil))
}

// Bid 对指定派系出价
func (c *Client) Bid(faction string, amount float64) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgBid, protocol.BidPayload{Faction: faction, Amount: amount}))
}

// GetState 请求当前拍卖状态
func (c *Client) GetState() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgGetState, nil))
}

// GetLog 请求事件日志，roomCode 为空时查询当前房间
func (c *Client) GetLog(roomCode string) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgGetLog, protocol.GetLogPayload{RoomCode: roomCode}))
}

// GetRoomList 请求房间列表
func (c *Client) GetRoomList() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgGetRoomList, nil))
}

// GetOnlineCount 请求在线人数
func (c *Client) GetOnlineCount() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgGetOnlineCount, nil))
}

// Ping 发送心跳
func (c *Client) Ping() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgPing, protocol.PingPayload{
		Timestamp: time.Now().UnixMilli(),
	}))
}
