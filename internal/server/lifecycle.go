package server

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
)

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Info().
			Int("online", s.GetOnlineCount()).
			Int("goroutines", runtime.NumGoroutine()).
			Int("active_conns", len(s.semaphore)).
			Int("max_conns", s.maxConnections).
			Int("active_auctions", s.roomManager.GetActiveAuctionsCount()).
			Float64("mem_mb", float64(m.Alloc)/1024/1024).
			Msg("stats")
	}
}

// EnterMaintenanceMode 进入维护模式，停止新连接和房间创建
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.BroadcastToLobby(codec.MustNewMessage(protocol.MsgMaintenancePush, protocol.MaintenancePayload{
		Maintenance: true,
	}))

	log.Warn().Msg("maintenance mode entered")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 进入维护模式并等待进行中的拍卖结束，超时后强制关闭
func (s *Server) GracefulShutdown(timeout time.Duration) {
	s.EnterMaintenanceMode()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.config.Server.ShutdownCheckIntervalDuration())
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		active := s.roomManager.GetActiveAuctionsCount()
		if active == 0 {
			log.Info().Msg("no active auctions, shutting down")
			break
		}
		log.Info().
			Int("active_auctions", active).
			Dur("remaining", time.Until(deadline).Round(time.Second)).
			Msg("waiting for auctions to finish")
		<-ticker.C
	}

	if active := s.roomManager.GetActiveAuctionsCount(); active > 0 {
		log.Warn().Int("active_auctions", active).Msg("shutdown timeout, closing remaining auctions")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Shutdown(ctx)
}

// Shutdown 关闭所有连接、HTTP 服务与 Redis
func (s *Server) Shutdown(ctx context.Context) {
	s.clientsMu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()

	for _, c := range clients {
		c.Close()
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("http server shutdown failed")
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Error().Err(err).Msg("redis close failed")
		}
	}

	log.Info().Msg("server stopped")
}
