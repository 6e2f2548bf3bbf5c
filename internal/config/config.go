package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultHost                  = "0.0.0.0"
	defaultPort                  = 1780
	defaultMaxConnections        = 2000
	defaultShutdownTimeout       = 30
	defaultShutdownCheckInterval = 5
	defaultRedisAddr             = "localhost:6379"
	defaultEdition               = "ifa"
	defaultMaxAttempts           = 10000
	defaultRoomTimeout           = 10
	defaultSnapshotTTL           = 120
	defaultConnPerSecond         = 10
	defaultConnPerMinute         = 60
	defaultBanDuration           = 60
	defaultMessagePerSecond      = 20
	defaultLogLevel              = "info"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Auction  AuctionConfig  `yaml:"auction"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	MaxConnections        int    `yaml:"max_connections"`
	ShutdownTimeout       int    `yaml:"shutdown_timeout"`        // 等待拍卖结束的最长时间（秒）
	ShutdownCheckInterval int    `yaml:"shutdown_check_interval"` // 检查间隔（秒）
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuctionConfig 拍卖配置
type AuctionConfig struct {
	Edition     string `yaml:"edition"`      // base | ifa
	MaxAttempts int    `yaml:"max_attempts"` // 组合生成的最大重试次数
	RoomTimeout int    `yaml:"room_timeout"` // 房间等待超时（分钟）
	SnapshotTTL int    `yaml:"snapshot_ttl"` // 拍卖快照保留时间（分钟）
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// RateLimitConfig 连接速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 秒
}

// MessageLimitConfig 消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"` // 控制台友好输出
}

// ShutdownTimeoutDuration 返回优雅关闭的等待时长
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// ShutdownCheckIntervalDuration 返回关闭检查间隔
func (c *ServerConfig) ShutdownCheckIntervalDuration() time.Duration {
	return time.Duration(c.ShutdownCheckInterval) * time.Second
}

// RoomTimeoutDuration 返回房间等待超时时长
func (c *AuctionConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.RoomTimeout) * time.Minute
}

// SnapshotTTLDuration 返回拍卖快照的过期时长
func (c *AuctionConfig) SnapshotTTLDuration() time.Duration {
	return time.Duration(c.SnapshotTTL) * time.Minute
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// Load 加载配置文件，环境变量优先于文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// Default 返回默认配置（仍会读取环境变量）
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.Host, defaultHost)
	setDefault(&c.Server.Port, defaultPort)
	setDefault(&c.Server.MaxConnections, defaultMaxConnections)
	setDefault(&c.Server.ShutdownTimeout, defaultShutdownTimeout)
	setDefault(&c.Server.ShutdownCheckInterval, defaultShutdownCheckInterval)
	setDefault(&c.Redis.Addr, defaultRedisAddr)
	setDefault(&c.Auction.Edition, defaultEdition)
	setDefault(&c.Auction.MaxAttempts, defaultMaxAttempts)
	setDefault(&c.Auction.RoomTimeout, defaultRoomTimeout)
	setDefault(&c.Auction.SnapshotTTL, defaultSnapshotTTL)
	setDefault(&c.Security.RateLimit.MaxPerSecond, defaultConnPerSecond)
	setDefault(&c.Security.RateLimit.MaxPerMinute, defaultConnPerMinute)
	setDefault(&c.Security.RateLimit.BanDuration, defaultBanDuration)
	setDefault(&c.Security.MessageLimit.MaxPerSecond, defaultMessagePerSecond)
	setDefault(&c.Log.Level, defaultLogLevel)
	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"*"}
	}
}

func (c *Config) applyEnv() {
	envString("SERVER_HOST", &c.Server.Host)
	envInt("SERVER_PORT", &c.Server.Port)
	envString("REDIS_ADDR", &c.Redis.Addr)
	envString("REDIS_PASSWORD", &c.Redis.Password)
	envString("AUCTION_EDITION", &c.Auction.Edition)
	envInt("AUCTION_MAX_ATTEMPTS", &c.Auction.MaxAttempts)
	envString("LOG_LEVEL", &c.Log.Level)

	if v := os.Getenv("SECURITY_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for o := range strings.SplitSeq(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			c.Security.AllowedOrigins = origins
		}
	}
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// envInt 忽略无法解析的值
func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
