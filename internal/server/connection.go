package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/apperrors"
	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
	"github.com/palemoky/scythe-bidder/internal/types"
)

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		log.Info().Str("ip", clientIP).Msg("maintenance mode, connection rejected")
		http.Error(w, "Server is under maintenance, please try again later", http.StatusServiceUnavailable)
		return
	}

	// 连接数限制，连接关闭后在 ReadPump 结束时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Warn().Int("max", s.maxConnections).Str("ip", clientIP).Msg("connection limit reached")
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}
	release := func() { <-s.semaphore }

	if !s.ipFilter.IsAllowed(clientIP) {
		release()
		log.Warn().Str("ip", clientIP).Msg("ip rejected by filter")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if !s.originChecker.Check(r) {
		release()
		log.Warn().Str("origin", r.Header.Get("Origin")).Str("ip", clientIP).Msg("origin rejected")
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	if !s.rateLimiter.Allow(clientIP) {
		release()
		log.Warn().Str("ip", clientIP).Msg("too many connection attempts")
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		release()
		log.Warn().Err(err).Str("ip", clientIP).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(s, conn)
	client.IP = clientIP
	s.registerClient(client)

	// 创建会话并下发重连令牌
	ps := s.sessionManager.CreateSession(client.ID, client.Name)
	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID:       client.ID,
		PlayerName:     client.Name,
		ReconnectToken: ps.ReconnectToken,
	}))

	log.Info().Str("player", client.Name).Str("player_id", client.ID).Str("ip", clientIP).Msg("player connected")

	go func() {
		defer release()
		client.ReadPump()
	}()
	go client.WritePump()
}

type healthResponse struct {
	Status         string `json:"status"`
	Online         int    `json:"online"`
	ActiveAuctions int    `json:"active_auctions"`
	Maintenance    bool   `json:"maintenance"`
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "ok",
		Online:         s.GetOnlineCount(),
		ActiveAuctions: s.roomManager.GetActiveAuctionsCount(),
		Maintenance:    s.IsMaintenanceMode(),
	})
}

// handleRoomList 列出可加入的房间
func (s *Server) handleRoomList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, protocol.RoomListResultPayload{Rooms: s.roomManager.GetRoomList()})
}

// handleRoomLog 返回房间的拍卖事件日志
func (s *Server) handleRoomLog(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	entries, err := s.handler.AuctionLog(r.Context(), code)
	if err != nil {
		var gameErr *apperrors.GameError
		if errors.As(err, &gameErr) {
			writeJSON(w, http.StatusNotFound, protocol.ErrorPayload{Code: gameErr.Code, Message: gameErr.Message})
			return
		}
		log.Error().Err(err).Str("room", code).Msg("load auction log failed")
		writeJSON(w, http.StatusInternalServerError, protocol.ErrorPayload{Code: protocol.ErrCodeUnknown, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, protocol.AuctionLogPayload{RoomCode: code, Log: entries})
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.GetID()] = client
}

// unregisterClient 注销客户端，只有登记的仍是该连接时才删除
func (s *Server) unregisterClient(client *Client) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	id := client.GetID()
	if current, ok := s.clients[id]; ok && current == client {
		delete(s.clients, id)
		log.Info().Str("player", client.GetName()).Str("player_id", id).Msg("player disconnected")
		return true
	}
	return false
}

// --- types.ServerInterface ---

// GetClientByID 按玩家 ID 获取在线连接
func (s *Server) GetClientByID(id string) types.ClientInterface {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	if c, ok := s.clients[id]; ok {
		return c
	}
	return nil
}

// RegisterClient 以指定 ID 登记连接
func (s *Server) RegisterClient(id string, client types.ClientInterface) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if c, ok := client.(*Client); ok {
		s.clients[id] = c
	}
}

// UnregisterClient 删除指定 ID 的登记
func (s *Server) UnregisterClient(id string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, id)
}
