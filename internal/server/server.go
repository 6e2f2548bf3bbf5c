package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/config"
	"github.com/palemoky/scythe-bidder/internal/game/auction"
	"github.com/palemoky/scythe-bidder/internal/game/room"
	"github.com/palemoky/scythe-bidder/internal/server/handler"
	"github.com/palemoky/scythe-bidder/internal/server/session"
	"github.com/palemoky/scythe-bidder/internal/server/storage"
)

// Server WebSocket 服务器
type Server struct {
	config         *config.Config
	redis          *redis.Client
	redisStore     *storage.RedisStore
	roomManager    *room.RoomManager
	sessionManager *session.SessionManager
	handler        *handler.Handler
	clients        map[string]*Client
	clientsMu      sync.RWMutex

	router     *chi.Mux
	httpServer *http.Server
	upgrader   websocket.Upgrader

	// 安全组件
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter
	ipFilter       *IPFilter

	// 连接控制
	maxConnections int
	semaphore      chan struct{}

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex
}

// NewServer 连接 Redis 并创建服务器
func NewServer(cfg *config.Config) (*Server, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	return New(cfg, rdb)
}

// New 使用已有的 Redis 客户端创建服务器，rdb 为 nil 时不做持久化
func New(cfg *config.Config, rdb *redis.Client) (*Server, error) {
	edition := auction.Edition(cfg.Auction.Edition)
	if _, err := auction.CatalogFor(edition); err != nil {
		return nil, err
	}

	s := &Server{
		config:         cfg,
		redis:          rdb,
		redisStore:     storage.NewRedisStore(rdb),
		clients:        make(map[string]*Client),
		rateLimiter:    NewRateLimiter(cfg.Security.RateLimit.MaxPerSecond, cfg.Security.RateLimit.MaxPerMinute, cfg.Security.RateLimit.BanDurationTime()),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		ipFilter:       NewIPFilter(),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}

	s.sessionManager = session.NewSessionManager(s.redisStore)
	s.roomManager = room.NewRoomManager(s.redisStore, cfg.Auction.RoomTimeoutDuration())
	s.roomManager.SetDefaultEdition(edition)

	purgeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if purged, err := s.roomManager.PurgeStaleRooms(purgeCtx); err != nil {
		log.Warn().Err(err).Msg("purge stale rooms failed")
	} else if purged > 0 {
		log.Info().Int("rooms", purged).Msg("stale rooms purged")
	}

	rules := auction.DefaultRules()
	rules.MaxAttempts = cfg.Auction.MaxAttempts
	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:         s,
		RoomManager:    s.roomManager,
		SessionManager: s.sessionManager,
		Store:          s.redisStore,
		Auction: session.AuctionOptions{
			Rules:       rules,
			Store:       s.redisStore,
			SnapshotTTL: cfg.Auction.SnapshotTTLDuration(),
		},
	})

	s.router = s.routes()

	log.Info().
		Int("conn_per_second", cfg.Security.RateLimit.MaxPerSecond).
		Int("msg_per_second", cfg.Security.MessageLimit.MaxPerSecond).
		Int("max_connections", cfg.Server.MaxConnections).
		Str("edition", cfg.Auction.Edition).
		Msg("server configured")

	return s, nil
}

// routes 注册 HTTP 路由
func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/health", s.handleHealth)
	r.Route("/rooms", func(r chi.Router) {
		r.Use(jsonContentType)
		r.Get("/", s.handleRoomList)
		r.Get("/{code}/log", s.handleRoomLog)
	})
	return r
}

// Router 返回 HTTP 路由（测试使用）
func (s *Server) Router() http.Handler { return s.router }

// Start 启动服务器，Shutdown 后返回 nil
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go s.monitorStats()

	log.Info().Str("addr", "ws://"+addr+"/ws").Int("cpus", runtime.NumCPU()).Msg("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
