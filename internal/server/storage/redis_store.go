package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	roomKeyPrefix    = "room:"
	auctionKeyPrefix = "auction:"
	sessionKeyPrefix = "session:"

	// 房间数据过期时间
	roomExpiration = 2 * time.Hour
)

// RoomData 房间数据（用于 Redis 序列化）
type RoomData struct {
	Code        string       `json:"code"`
	Edition     string       `json:"edition"`
	State       int          `json:"state"`
	Players     []PlayerData `json:"players"`
	PlayerOrder []string     `json:"player_order"`
	CreatedAt   int64        `json:"created_at"`
}

// PlayerData 玩家数据
type PlayerData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Seat  int    `json:"seat"`
	Ready bool   `json:"ready"`
}

// AuctionData 拍卖快照，断线恢复用，过期即丢弃
type AuctionData struct {
	RoomCode     string            `json:"room_code"`
	Edition      string            `json:"edition"`
	Phase        string            `json:"phase"`
	PlayerIDs    []string          `json:"player_ids"` // 下标即座位号
	PlayOrder    []int             `json:"play_order"`
	Position     int               `json:"position"` // 当前出价顺序位置
	Combinations []CombinationData `json:"combinations"`
	Log          []string          `json:"log"`
	Seed         uint64            `json:"seed"` // 组合生成的随机种子，用于复现
	UpdatedAt    int64             `json:"updated_at"`
}

// CombinationData 组合快照
type CombinationData struct {
	Faction       string `json:"faction"`
	Mat           string `json:"mat"`
	CurrentBid    int    `json:"current_bid"`
	CurrentHolder int    `json:"current_holder"`
}

// RedisStore Redis 存储
//
// client 为 nil 时所有写操作直接返回，读操作返回空结果，便于在无 Redis 的
// 单元测试中使用。
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (rs *RedisStore) disabled() bool {
	return rs == nil || rs.client == nil
}

// --- 房间存储 ---

// SaveRoom 保存房间到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, roomCode string, data *RoomData) error {
	if rs.disabled() || data == nil {
		return nil
	}
	return rs.setJSON(ctx, roomKeyPrefix+roomCode, data, roomExpiration)
}

// LoadRoom 从 Redis 加载房间（仅返回数据，需要外部重建），不存在时返回 nil
func (rs *RedisStore) LoadRoom(ctx context.Context, code string) (*RoomData, error) {
	var data RoomData
	found, err := rs.getJSON(ctx, roomKeyPrefix+code, &data)
	if err != nil || !found {
		return nil, err
	}
	return &data, nil
}

// DeleteRoom 从 Redis 删除房间
func (rs *RedisStore) DeleteRoom(ctx context.Context, code string) error {
	if rs.disabled() {
		return nil
	}
	return rs.client.Del(ctx, roomKeyPrefix+code).Err()
}

// GetAllRoomCodes 获取所有房间号
func (rs *RedisStore) GetAllRoomCodes(ctx context.Context) ([]string, error) {
	if rs.disabled() {
		return nil, nil
	}

	var codes []string
	iter := rs.client.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		codes = append(codes, iter.Val()[len(roomKeyPrefix):])
	}
	return codes, iter.Err()
}

// --- 拍卖快照 ---

// SaveAuction 保存拍卖快照，ttl 到期后自动删除
func (rs *RedisStore) SaveAuction(ctx context.Context, data *AuctionData, ttl time.Duration) error {
	if rs.disabled() || data == nil {
		return nil
	}
	return rs.setJSON(ctx, auctionKeyPrefix+data.RoomCode, data, ttl)
}

// LoadAuction 加载拍卖快照，不存在或已过期时返回 nil
func (rs *RedisStore) LoadAuction(ctx context.Context, roomCode string) (*AuctionData, error) {
	var data AuctionData
	found, err := rs.getJSON(ctx, auctionKeyPrefix+roomCode, &data)
	if err != nil || !found {
		return nil, err
	}
	return &data, nil
}

// DeleteAuction 删除拍卖快照
func (rs *RedisStore) DeleteAuction(ctx context.Context, roomCode string) error {
	if rs.disabled() {
		return nil
	}
	return rs.client.Del(ctx, auctionKeyPrefix+roomCode).Err()
}

// --- 会话存储 ---

// PlayerSessionData 玩家会话数据（用于 Redis 序列化）
type PlayerSessionData struct {
	PlayerID       string `json:"player_id"`
	PlayerName     string `json:"player_name"`
	ReconnectToken string `json:"token"`
	RoomCode       string `json:"room_code"`
	IsOnline       bool   `json:"is_online"`
	DisconnectedAt int64  `json:"disconnected_at,omitempty"`
}

// SaveSession 保存会话到 Redis
func (rs *RedisStore) SaveSession(ctx context.Context, session *PlayerSessionData) error {
	if rs.disabled() || session == nil {
		return nil
	}

	data := map[string]any{
		"player_id":   session.PlayerID,
		"player_name": session.PlayerName,
		"token":       session.ReconnectToken,
		"room_code":   session.RoomCode,
		"is_online":   session.IsOnline,
	}
	if session.DisconnectedAt != 0 {
		data["disconnected_at"] = session.DisconnectedAt
	}

	key := sessionKeyPrefix + session.PlayerID
	return rs.client.HSet(ctx, key, data).Err()
}

// LoadSession 从 Redis 加载会话，不存在时返回 nil
func (rs *RedisStore) LoadSession(ctx context.Context, playerID string) (*PlayerSessionData, error) {
	if rs.disabled() {
		return nil, nil
	}

	data, err := rs.client.HGetAll(ctx, sessionKeyPrefix+playerID).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	session := &PlayerSessionData{
		PlayerID:       data["player_id"],
		PlayerName:     data["player_name"],
		ReconnectToken: data["token"],
		RoomCode:       data["room_code"],
		IsOnline:       data["is_online"] == "1",
	}
	if v, ok := data["disconnected_at"]; ok {
		session.DisconnectedAt, _ = strconv.ParseInt(v, 10, 64)
	}
	return session, nil
}

// DeleteSession 删除会话
func (rs *RedisStore) DeleteSession(ctx context.Context, playerID string) error {
	if rs.disabled() {
		return nil
	}
	return rs.client.Del(ctx, sessionKeyPrefix+playerID).Err()
}

// --- 辅助方法 ---

// SetRoomExpiration 设置房间过期时间
func (rs *RedisStore) SetRoomExpiration(ctx context.Context, code string, expiration time.Duration) error {
	if rs.disabled() {
		return nil
	}
	return rs.client.Expire(ctx, roomKeyPrefix+code, expiration).Err()
}

func (rs *RedisStore) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化 %s 失败: %w", key, err)
	}
	return rs.client.Set(ctx, key, data, ttl).Err()
}

func (rs *RedisStore) getJSON(ctx context.Context, key string, v any) (bool, error) {
	if rs.disabled() {
		return false, nil
	}

	data, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("反序列化 %s 失败: %w", key, err)
	}
	return true, nil
}
