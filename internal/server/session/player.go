package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/server/storage"
)

const (
	// 重连等待时间
	reconnectTimeout = 2 * time.Minute
	// 会话过期时间
	sessionExpireTime = 10 * time.Minute
	// Redis 读写超时
	storeTimeout = 3 * time.Second
)

// PlayerSession 玩家会话（用于断线重连）
type PlayerSession struct {
	PlayerID       string
	PlayerName     string
	ReconnectToken string
	RoomCode       string

	DisconnectedAt time.Time // 断线时间
	IsOnline       bool      // 是否在线

	mu sync.RWMutex
}

func (ps *PlayerSession) toData() *storage.PlayerSessionData {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	data := &storage.PlayerSessionData{
		PlayerID:       ps.PlayerID,
		PlayerName:     ps.PlayerName,
		ReconnectToken: ps.ReconnectToken,
		RoomCode:       ps.RoomCode,
		IsOnline:       ps.IsOnline,
	}
	if !ps.DisconnectedAt.IsZero() {
		data.DisconnectedAt = ps.DisconnectedAt.Unix()
	}
	return data
}

func sessionFromData(data *storage.PlayerSessionData) *PlayerSession {
	ps := &PlayerSession{
		PlayerID:       data.PlayerID,
		PlayerName:     data.PlayerName,
		ReconnectToken: data.ReconnectToken,
		RoomCode:       data.RoomCode,
		IsOnline:       data.IsOnline,
	}
	if data.DisconnectedAt != 0 {
		ps.DisconnectedAt = time.Unix(data.DisconnectedAt, 0)
	}
	return ps
}

// SessionManager 会话管理器
//
// 内存为主，Redis 为辅：每次变更异步写入 Redis，内存未命中时从 Redis 恢复，
// 使服务重启后玩家仍能凭 token 重连。
type SessionManager struct {
	store    *storage.RedisStore
	sessions map[string]*PlayerSession // playerID -> session
	tokens   map[string]string         // token -> playerID
	mu       sync.RWMutex
}

// NewSessionManager 创建会话管理器，store 可以为 nil
func NewSessionManager(store *storage.RedisStore) *SessionManager {
	sm := &SessionManager{
		store:    store,
		sessions: make(map[string]*PlayerSession),
		tokens:   make(map[string]string),
	}

	// 启动会话清理协程
	go sm.cleanupLoop()

	return sm
}

// CreateSession 创建新会话
func (sm *SessionManager) CreateSession(playerID, playerName string) *PlayerSession {
	session := &PlayerSession{
		PlayerID:       playerID,
		PlayerName:     playerName,
		ReconnectToken: generateToken(),
		IsOnline:       true,
	}

	sm.mu.Lock()
	sm.sessions[playerID] = session
	sm.tokens[session.ReconnectToken] = playerID
	sm.mu.Unlock()

	sm.persist(session)
	return session
}

// GetSession 获取会话
func (sm *SessionManager) GetSession(playerID string) *PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[playerID]
}

// GetSessionByToken 通过 token 获取会话
func (sm *SessionManager) GetSessionByToken(token string) *PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	playerID, ok := sm.tokens[token]
	if !ok {
		return nil
	}
	return sm.sessions[playerID]
}

// SetOffline 设置玩家离线
func (sm *SessionManager) SetOffline(playerID string) {
	sm.update(playerID, func(s *PlayerSession) {
		s.IsOnline = false
		s.DisconnectedAt = time.Now()
	})
}

// SetOnline 设置玩家上线
func (sm *SessionManager) SetOnline(playerID string) {
	sm.update(playerID, func(s *PlayerSession) {
		s.IsOnline = true
		s.DisconnectedAt = time.Time{}
	})
}

// SetRoom 设置玩家所在房间
func (sm *SessionManager) SetRoom(playerID, roomCode string) {
	sm.update(playerID, func(s *PlayerSession) {
		s.RoomCode = roomCode
	})
}

func (sm *SessionManager) update(playerID string, fn func(*PlayerSession)) {
	sm.mu.RLock()
	session, ok := sm.sessions[playerID]
	sm.mu.RUnlock()
	if !ok {
		return
	}

	session.mu.Lock()
	fn(session)
	session.mu.Unlock()

	sm.persist(session)
}

// DeleteSession 删除会话
func (sm *SessionManager) DeleteSession(playerID string) {
	sm.mu.Lock()
	if session, ok := sm.sessions[playerID]; ok {
		delete(sm.tokens, session.ReconnectToken)
		delete(sm.sessions, playerID)
	}
	sm.mu.Unlock()

	if sm.store != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			defer cancel()
			if err := sm.store.DeleteSession(ctx, playerID); err != nil {
				log.Warn().Err(err).Str("player", playerID).Msg("delete session failed")
			}
		}()
	}
}

// CanReconnect 检查玩家是否可以重连
//
// 内存中没有该 token 时尝试从 Redis 恢复会话。
func (sm *SessionManager) CanReconnect(ctx context.Context, token, playerID string) bool {
	sm.mu.RLock()
	storedPlayerID, ok := sm.tokens[token]
	session := sm.sessions[playerID]
	sm.mu.RUnlock()

	if !ok {
		session = sm.restore(ctx, playerID)
		if session == nil || session.ReconnectToken != token {
			return false
		}
		storedPlayerID = playerID
	}
	if storedPlayerID != playerID || session == nil {
		return false
	}

	session.mu.RLock()
	defer session.mu.RUnlock()

	// 检查是否在重连时限内
	if !session.IsOnline && time.Since(session.DisconnectedAt) > reconnectTimeout {
		return false
	}
	return true
}

// restore 从 Redis 载入会话并放入内存
func (sm *SessionManager) restore(ctx context.Context, playerID string) *PlayerSession {
	if sm.store == nil || playerID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	data, err := sm.store.LoadSession(ctx, playerID)
	if err != nil {
		log.Warn().Err(err).Str("player", playerID).Msg("load session failed")
		return nil
	}
	if data == nil || data.ReconnectToken == "" {
		return nil
	}

	session := sessionFromData(data)

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if existing, ok := sm.sessions[playerID]; ok {
		return existing
	}
	sm.sessions[playerID] = session
	sm.tokens[session.ReconnectToken] = playerID

	log.Info().Str("player", playerID).Msg("session restored from redis")
	return session
}

// IsOnline 检查玩家是否在线
func (sm *SessionManager) IsOnline(playerID string) bool {
	sm.mu.RLock()
	session, ok := sm.sessions[playerID]
	sm.mu.RUnlock()

	if !ok {
		return false
	}

	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.IsOnline
}

// persist 异步写入 Redis
func (sm *SessionManager) persist(session *PlayerSession) {
	if sm.store == nil {
		return
	}
	data := session.toData()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := sm.store.SaveSession(ctx, data); err != nil {
			log.Warn().Err(err).Str("player", data.PlayerID).Msg("save session failed")
		}
	}()
}

// cleanupLoop 定期清理过期会话
func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		sm.cleanup()
	}
}

// cleanup 清理离线超过会话过期时间的会话
func (sm *SessionManager) cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()
	for playerID, session := range sm.sessions {
		session.mu.RLock()
		expired := !session.IsOnline && now.Sub(session.DisconnectedAt) > sessionExpireTime
		session.mu.RUnlock()
		if expired {
			delete(sm.tokens, session.ReconnectToken)
			delete(sm.sessions, playerID)
		}
	}
}

// generateToken 生成随机 token
func generateToken() string {
	bytes := make([]byte, 32)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
