package room

import (
	"slices"
	"sync"
	"time"

	"github.com/palemoky/scythe-bidder/internal/game/auction"
	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/server/storage"
	"github.com/palemoky/scythe-bidder/internal/types"
)

const (
	roomCodeLength = 6            // 房间号长度
	roomCodeChars  = "0123456789" // 房间号字符集
	minPlayers     = 2            // 开始拍卖的最少人数
)

// RoomPlayer 房间中的玩家，Client 为 nil 表示离线
type RoomPlayer struct {
	Client types.ClientInterface
	Seat   int  // 座位号
	Ready  bool // 是否准备
}

// Room 拍卖房间
type Room struct {
	Code        string                 // 房间号
	Edition     auction.Edition        // 游戏版本
	MaxPlayers  int                    // 由版本决定
	State       RoomState              // 房间状态
	Players     map[string]*RoomPlayer // 玩家列表
	PlayerOrder []string               // 玩家顺序（按加入先后）
	CreatedAt   time.Time              // 创建时间
	EndedAt     time.Time              // 拍卖结束时间

	mu sync.RWMutex
}

// SeatedPlayer 开局时的座位快照
type SeatedPlayer struct {
	ID   string
	Name string
}

// RoomManager 房间管理器
type RoomManager struct {
	redisStore     *storage.RedisStore
	roomTimeout    time.Duration
	defaultEdition auction.Edition
	rooms          map[string]*Room
	mu             sync.RWMutex

	onStart  func(*Room)       // 所有玩家准备后调用，不持有任何锁
	onRemove func(code string) // 房间被移除后调用，不持有任何锁
}

// NewRoomManager 创建房间管理器
func NewRoomManager(rs *storage.RedisStore, roomTimeout time.Duration) *RoomManager {
	rm := &RoomManager{
		redisStore:     rs,
		roomTimeout:    roomTimeout,
		defaultEdition: auction.EditionIFA,
		rooms:          make(map[string]*Room),
	}

	// 启动房间清理协程
	go rm.cleanupLoop()

	return rm
}

// SetDefaultEdition 设置创建房间时未指定版本所使用的版本
func (rm *RoomManager) SetDefaultEdition(e auction.Edition) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.defaultEdition = e
}

// OnStart 注册开局回调
func (rm *RoomManager) OnStart(fn func(*Room)) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.onStart = fn
}

// OnRemove 注册房间移除回调
func (rm *RoomManager) OnRemove(fn func(code string)) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.onRemove = fn
}

// Broadcast 广播消息给房间内所有在线玩家
func (r *Room) Broadcast(msg *protocol.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.broadcastExceptLocked("", msg)
}

// BroadcastExcept 广播消息给除指定玩家外的在线玩家
func (r *Room) BroadcastExcept(exceptID string, msg *protocol.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.broadcastExceptLocked(exceptID, msg)
}

func (r *Room) broadcastExceptLocked(exceptID string, msg *protocol.Message) {
	for id, p := range r.Players {
		if id != exceptID && p.Client != nil {
			p.Client.SendMessage(msg)
		}
	}
}

// SendTo 发送消息给指定玩家，离线时丢弃
func (r *Room) SendTo(playerID string, msg *protocol.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.Players[playerID]; ok && p.Client != nil {
		p.Client.SendMessage(msg)
	}
}

// GetPlayerInfo 获取玩家信息
func (r *Room) GetPlayerInfo(playerID string) protocol.PlayerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.playerInfoLocked(playerID)
}

func (r *Room) playerInfoLocked(playerID string) protocol.PlayerInfo {
	p, ok := r.Players[playerID]
	if !ok {
		return protocol.PlayerInfo{ID: playerID}
	}
	info := protocol.PlayerInfo{
		ID:     playerID,
		Seat:   p.Seat,
		Ready:  p.Ready,
		Online: p.Client != nil,
	}
	if p.Client != nil {
		info.Name = p.Client.GetName()
	}
	return info
}

// GetAllPlayersInfo 按座位号返回所有玩家信息
func (r *Room) GetAllPlayersInfo() []protocol.PlayerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]protocol.PlayerInfo, 0, len(r.Players))
	for _, id := range r.seatOrderLocked() {
		infos = append(infos, r.playerInfoLocked(id))
	}
	return infos
}

// SeatedPlayers 按座位号返回玩家 ID 与昵称，下标即拍卖座位号
func (r *Room) SeatedPlayers() []SeatedPlayer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seated := make([]SeatedPlayer, 0, len(r.Players))
	for _, id := range r.seatOrderLocked() {
		sp := SeatedPlayer{ID: id}
		if c := r.Players[id].Client; c != nil {
			sp.Name = c.GetName()
		}
		seated = append(seated, sp)
	}
	return seated
}

func (r *Room) seatOrderLocked() []string {
	ids := make([]string, 0, len(r.Players))
	for id := range r.Players {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		return r.Players[a].Seat - r.Players[b].Seat
	})
	return ids
}

// GetState 获取房间状态
func (r *Room) GetState() RoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.State
}

// SetState 设置房间状态
func (r *Room) SetState(s RoomState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.State = s
	if s == RoomStateEnded {
		r.EndedAt = time.Now()
	}
}

// checkAllReady 人数足够且所有在线玩家都已准备
func (r *Room) checkAllReady() bool {
	if len(r.Players) < minPlayers {
		return false
	}
	for _, p := range r.Players {
		if !p.Ready || p.Client == nil {
			return false
		}
	}
	return true
}

// freeSeatLocked 返回最小的空闲座位号
func (r *Room) freeSeatLocked() int {
	taken := make(map[int]bool, len(r.Players))
	for _, p := range r.Players {
		taken[p.Seat] = true
	}
	seat := 0
	for taken[seat] {
		seat++
	}
	return seat
}
