package handler

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/apperrors"
	"github.com/palemoky/scythe-bidder/internal/game/room"
	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
	"github.com/palemoky/scythe-bidder/internal/server/session"
	"github.com/palemoky/scythe-bidder/internal/server/storage"
	"github.com/palemoky/scythe-bidder/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server         types.ServerInterface
	RoomManager    *room.RoomManager
	SessionManager *session.SessionManager
	Store          *storage.RedisStore    // 可以为 nil
	Auction        session.AuctionOptions // 每局拍卖的规则与快照参数
}

// Handler 消息处理器
type Handler struct {
	server         types.ServerInterface
	roomManager    *room.RoomManager
	sessionManager *session.SessionManager
	store          *storage.RedisStore
	auctionOpts    session.AuctionOptions
	handlers       map[protocol.MessageType]handlerFunc
	auctions       map[string]*session.AuctionSession
	auctionsMu     sync.RWMutex
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器，并接管房间管理器的开局与移除回调
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:         deps.Server,
		roomManager:    deps.RoomManager,
		sessionManager: deps.SessionManager,
		store:          deps.Store,
		auctionOpts:    deps.Auction,
		auctions:       make(map[string]*session.AuctionSession),
	}
	if h.auctionOpts.Store == nil {
		h.auctionOpts.Store = deps.Store
	}
	if h.roomManager != nil {
		h.roomManager.OnStart(h.startAuction)
		h.roomManager.OnRemove(h.removeAuction)
	}
	h.initHandlers()
	return h
}

// GetAuctionSession 获取房间的拍卖会话
func (h *Handler) GetAuctionSession(roomCode string) *session.AuctionSession {
	h.auctionsMu.RLock()
	defer h.auctionsMu.RUnlock()
	return h.auctions[roomCode]
}

// SetAuctionSession 设置房间的拍卖会话，as 为 nil 时删除
func (h *Handler) SetAuctionSession(roomCode string, as *session.AuctionSession) {
	h.auctionsMu.Lock()
	defer h.auctionsMu.Unlock()
	if as == nil {
		delete(h.auctions, roomCode)
	} else {
		h.auctions[roomCode] = as
	}
}

// removeAuction 房间移除后释放拍卖会话，未完成的拍卖无法再继续，快照一并删除
func (h *Handler) removeAuction(roomCode string) {
	h.auctionsMu.Lock()
	as := h.auctions[roomCode]
	delete(h.auctions, roomCode)
	h.auctionsMu.Unlock()

	if as != nil {
		as.Discard()
	}
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing:      h.handlePing,
		protocol.MsgReconnect: h.handleReconnect,

		// 房间操作
		protocol.MsgCreateRoom:  h.handleCreateRoom,
		protocol.MsgJoinRoom:    h.handleJoinRoom,
		protocol.MsgLeaveRoom:   func(c types.ClientInterface, _ *protocol.Message) { h.handleLeaveRoom(c) },
		protocol.MsgReady:       func(c types.ClientInterface, _ *protocol.Message) { h.handleReady(c, true) },
		protocol.MsgCancelReady: func(c types.ClientInterface, _ *protocol.Message) { h.handleReady(c, false) },

		// 拍卖操作
		protocol.MsgBid:      h.handleBid,
		protocol.MsgGetState: func(c types.ClientInterface, _ *protocol.Message) { h.handleGetState(c) },
		protocol.MsgGetLog:   h.handleGetLog,

		// 信息查询
		protocol.MsgGetRoomList:          func(c types.ClientInterface, _ *protocol.Message) { h.handleGetRoomList(c) },
		protocol.MsgGetOnlineCount:       func(c types.ClientInterface, _ *protocol.Message) { h.handleGetOnlineCount(c) },
		protocol.MsgGetMaintenanceStatus: func(c types.ClientInterface, _ *protocol.Message) { h.handleGetMaintenanceStatus(c) },
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	log.Warn().
		Str("type", string(msg.Type)).
		Str("player", client.GetName()).
		Str("player_id", client.GetID()).
		Int("payload_bytes", len(msg.Payload)).
		Msg("unknown message type")
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// sendError 发送错误，GameError 保留其文本
func sendError(client types.ClientInterface, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(codec.NewErrorMessageWithText(gameErr.Code, gameErr.Message))
		return
	}
	client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
}
