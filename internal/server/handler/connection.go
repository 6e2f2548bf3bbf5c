package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
	"github.com/palemoky/scythe-bidder/internal/server/session"
	"github.com/palemoky/scythe-bidder/internal/types"
)

// handlePing 处理心跳消息
func (h *Handler) handlePing(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// handleReconnect 处理断线重连
//
// 新连接接管原玩家的 ID 与昵称，连接时为新连接创建的临时会话被丢弃。
func (h *Handler) handleReconnect(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.ReconnectPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// 验证重连令牌
	if !h.sessionManager.CanReconnect(ctx, payload.Token, payload.PlayerID) {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "重连令牌无效或已过期"))
		return
	}

	ps := h.sessionManager.GetSession(payload.PlayerID)
	if ps == nil {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "会话不存在"))
		return
	}

	oldID := client.GetID()
	if oldID != ps.PlayerID {
		h.server.UnregisterClient(oldID)
		h.sessionManager.DeleteSession(oldID)
	}
	client.SetIdentity(ps.PlayerID, ps.PlayerName)
	h.server.RegisterClient(ps.PlayerID, client)
	h.sessionManager.SetOnline(ps.PlayerID)

	reconnected := protocol.ReconnectedPayload{
		PlayerID:   ps.PlayerID,
		PlayerName: ps.PlayerName,
	}
	h.tryRestoreRoomState(client, ps, &reconnected)

	client.SendMessage(codec.MustNewMessage(protocol.MsgReconnected, reconnected))

	log.Info().Str("player", ps.PlayerName).Str("player_id", ps.PlayerID).Msg("player reconnected")
}

// tryRestoreRoomState 尝试恢复房间与拍卖状态
func (h *Handler) tryRestoreRoomState(client types.ClientInterface, ps *session.PlayerSession, payload *protocol.ReconnectedPayload) {
	roomCode := ps.RoomCode
	if roomCode == "" || h.roomManager.GetRoom(roomCode) == nil {
		return
	}

	client.SetRoom(roomCode)
	if err := h.roomManager.ReconnectPlayer(client, client); err != nil {
		log.Warn().Err(err).Str("room", roomCode).Str("player_id", ps.PlayerID).Msg("rejoin room failed")
		client.SetRoom("")
		h.sessionManager.SetRoom(ps.PlayerID, "")
		return
	}
	payload.RoomCode = roomCode

	if as := h.GetAuctionSession(roomCode); as != nil {
		payload.AuctionState = as.Snapshot()
	}
}
