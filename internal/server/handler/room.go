package handler

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/game/auction"
	"github.com/palemoky/scythe-bidder/internal/game/room"
	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
	"github.com/palemoky/scythe-bidder/internal/server/session"
	"github.com/palemoky/scythe-bidder/internal/types"
)

// handleCreateRoom 处理创建房间，payload 可以为空
func (h *Handler) handleCreateRoom(client types.ClientInterface, msg *protocol.Message) {
	if h.server.IsMaintenanceMode() {
		client.SendMessage(codec.NewErrorMessageWithText(
			protocol.ErrCodeServerMaintenance, "服务器维护中，暂停创建房间"))
		return
	}

	var edition auction.Edition
	if len(msg.Payload) > 0 {
		payload, err := codec.ParsePayload[protocol.CreateRoomPayload](msg)
		if err != nil {
			client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			return
		}
		edition = auction.Edition(strings.ToLower(strings.TrimSpace(payload.Edition)))
	}

	// 如果已在房间中，先离开
	if client.GetRoom() != "" {
		if err := h.roomManager.LeaveRoom(client); err != nil {
			sendError(client, err)
			return
		}
	}

	rm, err := h.roomManager.CreateRoom(client, edition)
	if err != nil {
		sendError(client, err)
		return
	}
	h.sessionManager.SetRoom(client.GetID(), rm.Code)

	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomCreated, protocol.RoomCreatedPayload{
		RoomCode: rm.Code,
		Edition:  string(rm.Edition),
		Player:   rm.GetPlayerInfo(client.GetID()),
	}))
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	if h.server.IsMaintenanceMode() {
		client.SendMessage(codec.NewErrorMessageWithText(
			protocol.ErrCodeServerMaintenance, "服务器维护中，暂停加入房间"))
		return
	}

	payload, err := codec.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if current := client.GetRoom(); current != "" {
		if current == payload.RoomCode {
			return
		}
		if err := h.roomManager.LeaveRoom(client); err != nil {
			sendError(client, err)
			return
		}
	}

	rm, err := h.roomManager.JoinRoom(client, payload.RoomCode)
	if err != nil {
		sendError(client, err)
		return
	}
	h.sessionManager.SetRoom(client.GetID(), rm.Code)

	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		RoomCode: rm.Code,
		Edition:  string(rm.Edition),
		Player:   rm.GetPlayerInfo(client.GetID()),
		Players:  rm.GetAllPlayersInfo(),
	}))
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(client types.ClientInterface) {
	if err := h.roomManager.LeaveRoom(client); err != nil {
		sendError(client, err)
		return
	}
	h.sessionManager.SetRoom(client.GetID(), "")
}

// handleReady 处理准备与取消准备
func (h *Handler) handleReady(client types.ClientInterface, ready bool) {
	if err := h.roomManager.SetPlayerReady(client, ready); err != nil {
		sendError(client, err)
	}
}

// startAuction 所有玩家准备后由房间管理器回调
func (h *Handler) startAuction(rm *room.Room) {
	as := session.NewAuctionSession(rm, h.auctionOpts)
	h.SetAuctionSession(rm.Code, as)

	if err := as.Start(); err != nil {
		log.Error().Err(err).Str("room", rm.Code).Msg("start auction failed")
		h.SetAuctionSession(rm.Code, nil)
		rm.Reopen()
		rm.Broadcast(codec.NewErrorMessageWithText(protocol.ErrCodeGenerationFailed, err.Error()))
	}
}
