package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	content := `
server:
  host: "127.0.0.1"
  port: 8080
  max_connections: 5000

redis:
  addr: "redis:6379"
  password: "secret"
  db: 1

auction:
  edition: base
  max_attempts: 500
  room_timeout: 15
  snapshot_ttl: 30

security:
  allowed_origins:
    - "http://localhost:3000"
    - "https://example.com"
  rate_limit:
    max_per_second: 20
    max_per_minute: 120
    ban_duration: 120
  message_limit:
    max_per_second: 50

log:
  level: debug
  pretty: true
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5000, cfg.Server.MaxConnections)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, "base", cfg.Auction.Edition)
	assert.Equal(t, 500, cfg.Auction.MaxAttempts)
	assert.Equal(t, 15, cfg.Auction.RoomTimeout)
	assert.Equal(t, 30, cfg.Auction.SnapshotTTL)
	assert.Len(t, cfg.Security.AllowedOrigins, 2)
	assert.Equal(t, 50, cfg.Security.MessageLimit.MaxPerSecond)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "invalid: yaml: :::"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultMaxConnections, cfg.Server.MaxConnections)
	assert.Equal(t, defaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, defaultEdition, cfg.Auction.Edition)
	assert.Equal(t, defaultMaxAttempts, cfg.Auction.MaxAttempts)
	assert.Equal(t, defaultSnapshotTTL, cfg.Auction.SnapshotTTL)
	assert.Equal(t, defaultLogLevel, cfg.Log.Level)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
}

func TestDefault(t *testing.T) {
	// 不并行：Default 会读取环境变量

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, defaultMaxConnections, cfg.Server.MaxConnections)
	assert.Equal(t, defaultRoomTimeout, cfg.Auction.RoomTimeout)
	assert.Equal(t, defaultMessagePerSecond, cfg.Security.MessageLimit.MaxPerSecond)
}

func TestDurationMethods(t *testing.T) {
	t.Parallel()

	server := &ServerConfig{ShutdownTimeout: 60, ShutdownCheckInterval: 5}
	assert.Equal(t, 60*time.Second, server.ShutdownTimeoutDuration())
	assert.Equal(t, 5*time.Second, server.ShutdownCheckIntervalDuration())

	auction := &AuctionConfig{RoomTimeout: 10, SnapshotTTL: 120}
	assert.Equal(t, 10*time.Minute, auction.RoomTimeoutDuration())
	assert.Equal(t, 2*time.Hour, auction.SnapshotTTLDuration())

	rate := &RateLimitConfig{BanDuration: 120}
	assert.Equal(t, 120*time.Second, rate.BanDurationTime())
}

func TestLoadFromEnv(t *testing.T) {
	// 不并行：修改了环境变量

	t.Setenv("SERVER_HOST", "env-host")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("REDIS_ADDR", "env-redis:6380")
	t.Setenv("AUCTION_EDITION", "base")
	t.Setenv("AUCTION_MAX_ATTEMPTS", "not-a-number")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.com, http://b.com,")

	cfg, err := Load(writeConfig(t, "auction:\n  edition: ifa\n  max_attempts: 42\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "env-host", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "env-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "base", cfg.Auction.Edition)
	assert.Equal(t, 42, cfg.Auction.MaxAttempts, "unparsable env value is ignored")
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, cfg.Security.AllowedOrigins)
}
