package handler

import (
	"context"
	"time"

	"github.com/palemoky/scythe-bidder/internal/apperrors"
	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
	"github.com/palemoky/scythe-bidder/internal/types"
)

// handleBid 处理出价
func (h *Handler) handleBid(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.BidPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	roomCode := client.GetRoom()
	if roomCode == "" {
		sendError(client, apperrors.ErrNotInRoom)
		return
	}

	as := h.GetAuctionSession(roomCode)
	if as == nil {
		sendError(client, apperrors.ErrAuctionNotStart)
		return
	}

	if err := as.HandleBid(client.GetID(), payload.Faction, payload.Amount); err != nil {
		sendError(client, err)
	}
}

// handleGetState 返回当前房间的拍卖状态
func (h *Handler) handleGetState(client types.ClientInterface) {
	roomCode := client.GetRoom()
	if roomCode == "" {
		sendError(client, apperrors.ErrNotInRoom)
		return
	}

	as := h.GetAuctionSession(roomCode)
	if as == nil {
		sendError(client, apperrors.ErrAuctionNotStart)
		return
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgAuctionState, as.Snapshot()))
}

// handleGetLog 返回事件日志，payload 可以为空
func (h *Handler) handleGetLog(client types.ClientInterface, msg *protocol.Message) {
	roomCode := client.GetRoom()
	if len(msg.Payload) > 0 {
		payload, err := codec.ParsePayload[protocol.GetLogPayload](msg)
		if err != nil {
			client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			return
		}
		if payload.RoomCode != "" {
			roomCode = payload.RoomCode
		}
	}
	if roomCode == "" {
		sendError(client, apperrors.ErrNotInRoom)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	entries, err := h.AuctionLog(ctx, roomCode)
	if err != nil {
		sendError(client, err)
		return
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgAuctionLog, protocol.AuctionLogPayload{
		RoomCode: roomCode,
		Log:      entries,
	}))
}

// AuctionLog 返回房间的事件日志
//
// 房间仍在内存中时读取拍卖会话，否则从 Redis 快照中读取。
func (h *Handler) AuctionLog(ctx context.Context, roomCode string) ([]string, error) {
	if as := h.GetAuctionSession(roomCode); as != nil {
		return as.EventLog(), nil
	}

	data, err := h.store.LoadAuction(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, apperrors.ErrRoomNotFound
	}
	return data.Log, nil
}
