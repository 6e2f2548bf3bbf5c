package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/scythe-bidder/internal/server/storage"
)

func TestSessionManager_CRUD(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(nil)

	session := sm.CreateSession("p1", "Player1")
	assert.NotNil(t, session)
	assert.Equal(t, "p1", session.PlayerID)
	assert.Equal(t, "Player1", session.PlayerName)
	assert.NotEmpty(t, session.ReconnectToken)
	assert.True(t, session.IsOnline)

	s1 := sm.GetSession("p1")
	assert.Equal(t, session, s1)

	s2 := sm.GetSessionByToken(session.ReconnectToken)
	assert.Equal(t, session, s2)

	sm.DeleteSession("p1")
	assert.Nil(t, sm.GetSession("p1"))
	assert.Nil(t, sm.GetSessionByToken(session.ReconnectToken))
}

func TestSessionManager_OnlineStatus(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(nil)
	session := sm.CreateSession("p1", "Player1")

	assert.True(t, session.IsOnline)
	assert.True(t, session.DisconnectedAt.IsZero())

	sm.SetOffline("p1")
	assert.False(t, sm.GetSession("p1").IsOnline)
	assert.False(t, sm.GetSession("p1").DisconnectedAt.IsZero())

	sm.SetOnline("p1")
	assert.True(t, sm.GetSession("p1").IsOnline)
	assert.True(t, sm.GetSession("p1").DisconnectedAt.IsZero())
}

func TestSessionManager_CanReconnect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		setup     func(sm *SessionManager) (token, playerID string)
		wantAllow bool
	}{
		{
			name: "valid reconnection (online)",
			setup: func(sm *SessionManager) (string, string) {
				session := sm.CreateSession("p1", "Player1")
				return session.ReconnectToken, "p1"
			},
			wantAllow: true,
		},
		{
			name: "valid reconnection (offline)",
			setup: func(sm *SessionManager) (string, string) {
				session := sm.CreateSession("p1", "Player1")
				sm.SetOffline("p1")
				return session.ReconnectToken, "p1"
			},
			wantAllow: true,
		},
		{
			name: "invalid token",
			setup: func(sm *SessionManager) (string, string) {
				sm.CreateSession("p1", "Player1")
				return "wrong-token", "p1"
			},
			wantAllow: false,
		},
		{
			name: "wrong player ID",
			setup: func(sm *SessionManager) (string, string) {
				session := sm.CreateSession("p1", "Player1")
				return session.ReconnectToken, "p2"
			},
			wantAllow: false,
		},
		{
			name: "expired session",
			setup: func(sm *SessionManager) (string, string) {
				session := sm.CreateSession("p1", "Player1")
				sm.SetOffline("p1")
				// 直接回拨断线时间
				session.mu.Lock()
				session.DisconnectedAt = time.Now().Add(-3 * time.Minute)
				session.mu.Unlock()
				return session.ReconnectToken, "p1"
			},
			wantAllow: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sm := NewSessionManager(nil)
			token, playerID := tt.setup(sm)
			assert.Equal(t, tt.wantAllow, sm.CanReconnect(context.Background(), token, playerID))
		})
	}
}

func TestSessionManager_SetRoom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		playerID     string
		roomCode     string
		shouldCreate bool
	}{
		{"set room for existing player", "p1", "123456", true},
		{"set room for non-existent player", "p999", "123456", false},
		{"clear room", "p1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sm := NewSessionManager(nil)
			if tt.shouldCreate {
				sm.CreateSession("p1", "Player1")
			}

			sm.SetRoom(tt.playerID, tt.roomCode)

			if tt.shouldCreate && tt.playerID == "p1" {
				session := sm.GetSession("p1")
				assert.Equal(t, tt.roomCode, session.RoomCode)
			}
		})
	}
}

func TestSessionManager_IsOnline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		setup      func(sm *SessionManager)
		playerID   string
		wantOnline bool
	}{
		{
			name: "online player",
			setup: func(sm *SessionManager) {
				sm.CreateSession("p1", "Player1")
			},
			playerID:   "p1",
			wantOnline: true,
		},
		{
			name: "offline player",
			setup: func(sm *SessionManager) {
				sm.CreateSession("p1", "Player1")
				sm.SetOffline("p1")
			},
			playerID:   "p1",
			wantOnline: false,
		},
		{
			name:       "non-existent player",
			setup:      func(_ *SessionManager) {},
			playerID:   "p999",
			wantOnline: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sm := NewSessionManager(nil)
			tt.setup(sm)
			assert.Equal(t, tt.wantOnline, sm.IsOnline(tt.playerID))
		})
	}
}

func TestSessionManager_GetSessionByToken_EdgeCases(t *testing.T) {
	t.Parallel()

	t.Run("invalid token returns nil", func(t *testing.T) {
		t.Parallel()
		sm := NewSessionManager(nil)
		sm.CreateSession("p1", "Player1")
		assert.Nil(t, sm.GetSessionByToken("invalid-token"))
	})

	t.Run("empty token returns nil", func(t *testing.T) {
		t.Parallel()
		sm := NewSessionManager(nil)
		sm.CreateSession("p1", "Player1")
		assert.Nil(t, sm.GetSessionByToken(""))
	})
}

func TestSessionManager_SetOffline_NonExistent(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(nil)
	sm.SetOffline("non-existent")
}

func TestSessionManager_SetOnline_NonExistent(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(nil)
	sm.SetOnline("non-existent")
}

func TestSessionManager_DeleteSession_NonExistent(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(nil)
	sm.DeleteSession("non-existent")
}

func newTestStore(t *testing.T) (*storage.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return storage.NewRedisStore(client), mr
}

func TestSessionManager_RestoreFromRedis(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t)
	sm := NewSessionManager(store)
	session := sm.CreateSession("p1", "Player1")
	require.Eventually(t, func() bool { return mr.Exists("session:p1") }, time.Second, 10*time.Millisecond)
	sm.SetRoom("p1", "123456")

	require.Eventually(t, func() bool {
		return mr.Exists("session:p1") && mr.HGet("session:p1", "room_code") == "123456"
	}, time.Second, 10*time.Millisecond)

	// 模拟服务重启：新的管理器只有 Redis 中的数据
	restarted := NewSessionManager(store)
	assert.Nil(t, restarted.GetSession("p1"))
	assert.False(t, restarted.CanReconnect(context.Background(), "wrong-token", "p1"))
	assert.True(t, restarted.CanReconnect(context.Background(), session.ReconnectToken, "p1"))

	restored := restarted.GetSession("p1")
	require.NotNil(t, restored)
	assert.Equal(t, "Player1", restored.PlayerName)
	assert.Equal(t, "123456", restored.RoomCode)
	assert.Same(t, restored, restarted.GetSessionByToken(session.ReconnectToken))
}

func TestSessionManager_DeleteRemovesFromRedis(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t)
	sm := NewSessionManager(store)
	sm.CreateSession("p1", "Player1")
	require.Eventually(t, func() bool { return mr.Exists("session:p1") }, time.Second, 10*time.Millisecond)

	sm.DeleteSession("p1")
	assert.Eventually(t, func() bool { return !mr.Exists("session:p1") }, time.Second, 10*time.Millisecond)
}

func TestSessionManager_Cleanup(t *testing.T) {
	t.Parallel()

	sm := NewSessionManager(nil)
	stale := sm.CreateSession("p1", "Player1")
	sm.CreateSession("p2", "Player2")
	sm.SetOffline("p1")
	sm.SetOffline("p2")

	stale.mu.Lock()
	stale.DisconnectedAt = time.Now().Add(-sessionExpireTime - time.Minute)
	stale.mu.Unlock()

	sm.cleanup()

	assert.Nil(t, sm.GetSession("p1"))
	assert.Nil(t, sm.GetSessionByToken(stale.ReconnectToken))
	assert.NotNil(t, sm.GetSession("p2"))
}
