package session

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/apperrors"
	"github.com/palemoky/scythe-bidder/internal/game/auction"
	"github.com/palemoky/scythe-bidder/internal/game/room"
	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
	"github.com/palemoky/scythe-bidder/internal/server/storage"
)

// AuctionOptions 拍卖会话参数
type AuctionOptions struct {
	Rules       auction.Rules
	Source      auction.Source      // 为 nil 时由 Seed 构造
	Seed        uint64              // Source 为 nil 且 Seed 为 0 时随机生成
	Store       *storage.RedisStore // 为 nil 时不保存快照
	SnapshotTTL time.Duration
}

// AuctionSession 一个房间内的一局拍卖
//
// 座位号即开局时按房间座位排序后的下标，出价顺序由拍卖核心随机打乱。
type AuctionSession struct {
	room    *room.Room
	players []room.SeatedPlayer // 下标为拍卖座位号
	opts    AuctionOptions

	seed  uint64
	state *auction.State
	pos   int // 当前出价顺序位置

	mu sync.RWMutex

	// 快照按序号写入，旧快照不会覆盖新快照
	saveSeq  uint64
	savedSeq uint64
	saveMu   sync.Mutex
}

// NewAuctionSession 创建拍卖会话，此时固定座位
func NewAuctionSession(r *room.Room, opts AuctionOptions) *AuctionSession {
	if opts.Source == nil {
		if opts.Seed == 0 {
			opts.Seed = rand.Uint64()
		}
		opts.Source = auction.NewSource(opts.Seed)
	}
	return &AuctionSession{
		room:    r,
		players: r.SeatedPlayers(),
		opts:    opts,
		seed:    opts.Seed,
	}
}

// Start 生成组合并通知第一位出价者
func (as *AuctionSession) Start() error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.state != nil {
		return apperrors.ErrAuctionStarted
	}

	cat, err := auction.CatalogFor(as.room.Edition)
	if err != nil {
		return apperrors.FromAuction(err)
	}

	names := make([]string, len(as.players))
	for i, p := range as.players {
		names[i] = p.Name
	}

	state, err := auction.Setup(cat, names, as.opts.Rules, as.opts.Source)
	if err != nil {
		log.Error().Err(err).Str("room", as.room.Code).Msg("auction setup failed")
		return apperrors.FromAuction(err)
	}
	as.state = state
	as.pos = 0

	log.Info().
		Str("room", as.room.Code).
		Int("seats", len(as.players)).
		Str("edition", string(as.room.Edition)).
		Uint64("seed", as.seed).
		Msg("auction started")

	as.room.Broadcast(codec.MustNewMessage(protocol.MsgAuctionStart, protocol.AuctionStartPayload{
		State: as.snapshotLocked(),
	}))
	as.announceTurnLocked()
	as.saveLocked()
	return nil
}

// HandleBid 处理当前出价者的出价
func (as *AuctionSession) HandleBid(playerID, faction string, amount float64) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.state == nil {
		return apperrors.ErrAuctionNotStart
	}
	if as.state.Phase == auction.PhaseComplete {
		return apperrors.ErrAuctionComplete
	}

	seat := as.state.PlayOrder[as.pos]
	if as.players[seat].ID != playerID {
		return apperrors.ErrNotYourTurn
	}

	res, err := as.state.SubmitBid(seat, as.resolveFactionLocked(faction), amount)
	if err != nil {
		return apperrors.FromAuction(err)
	}

	payload := protocol.BidResultPayload{
		PlayerID:   playerID,
		PlayerName: as.players[seat].Name,
		Faction:    string(res.Faction),
		Mat:        string(res.Mat),
		Amount:     res.Amount,
	}
	if res.Displaced != auction.NoHolder {
		payload.DisplacedID = as.players[res.Displaced].ID
		payload.DisplacedName = as.players[res.Displaced].Name
	}
	as.room.Broadcast(codec.MustNewMessage(protocol.MsgBidResult, payload))

	if res.Complete {
		as.endLocked()
		as.saveLocked()
		return nil
	}

	next, err := as.state.NextEligibleSeat(as.pos)
	if err != nil {
		log.Error().Err(err).Str("room", as.room.Code).Msg("no eligible seat in unfinished auction")
		return apperrors.FromAuction(err)
	}
	as.pos = next
	as.announceTurnLocked()
	as.saveLocked()
	return nil
}

// resolveFactionLocked 忽略大小写匹配本局派系，匹配不到时原样交给核心校验
func (as *AuctionSession) resolveFactionLocked(name string) auction.Faction {
	name = strings.TrimSpace(name)
	for _, c := range as.state.Combinations {
		if strings.EqualFold(string(c.Faction), name) {
			return c.Faction
		}
	}
	return auction.Faction(name)
}

func (as *AuctionSession) announceTurnLocked() {
	p := as.players[as.state.PlayOrder[as.pos]]
	as.room.Broadcast(codec.MustNewMessage(protocol.MsgBidTurn, protocol.BidTurnPayload{
		PlayerID:   p.ID,
		PlayerName: p.Name,
	}))
}

func (as *AuctionSession) endLocked() {
	as.room.Broadcast(codec.MustNewMessage(protocol.MsgAuctionOver, protocol.AuctionOverPayload{
		Combinations: as.combinationInfosLocked(),
		Summary:      as.state.Results(),
	}))
	as.room.SetState(room.RoomStateEnded)

	log.Info().Str("room", as.room.Code).Str("result", as.state.Results()).Msg("auction complete")
}

// CurrentPlayerID 返回当前应出价的玩家，未开始或已结束时为空
func (as *AuctionSession) CurrentPlayerID() string {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.currentPlayerIDLocked()
}

func (as *AuctionSession) currentPlayerIDLocked() string {
	if as.state == nil || as.state.Phase == auction.PhaseComplete {
		return ""
	}
	return as.players[as.state.PlayOrder[as.pos]].ID
}

// IsComplete 所有组合都已有持有者
func (as *AuctionSession) IsComplete() bool {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.state != nil && as.state.IsComplete()
}

// EventLog 返回事件日志副本
func (as *AuctionSession) EventLog() []string {
	as.mu.RLock()
	defer as.mu.RUnlock()
	if as.state == nil {
		return nil
	}
	return as.state.EventLog()
}

// Snapshot 返回当前拍卖状态，用于查询与重连恢复
func (as *AuctionSession) Snapshot() *protocol.AuctionStateDTO {
	as.mu.RLock()
	defer as.mu.RUnlock()
	dto := as.snapshotLocked()
	return &dto
}

func (as *AuctionSession) snapshotLocked() protocol.AuctionStateDTO {
	dto := protocol.AuctionStateDTO{
		Phase:   auction.PhaseSetup.String(),
		Edition: string(as.room.Edition),
	}
	if as.state == nil {
		return dto
	}

	dto.Phase = as.state.Phase.String()
	dto.Combinations = as.combinationInfosLocked()
	dto.CurrentTurn = as.currentPlayerIDLocked()
	dto.Log = as.state.EventLog()

	dto.PlayOrder = make([]protocol.PlayerInfo, 0, len(as.state.PlayOrder))
	for _, seat := range as.state.PlayOrder {
		p := as.players[seat]
		info := as.room.GetPlayerInfo(p.ID)
		info.Name = p.Name
		info.Seat = seat
		dto.PlayOrder = append(dto.PlayOrder, info)
	}
	return dto
}

func (as *AuctionSession) combinationInfosLocked() []protocol.CombinationInfo {
	infos := make([]protocol.CombinationInfo, len(as.state.Combinations))
	for i, c := range as.state.Combinations {
		infos[i] = protocol.CombinationInfo{
			Faction:    string(c.Faction),
			Mat:        string(c.Mat),
			CurrentBid: c.CurrentBid,
		}
		if c.HasHolder() {
			infos[i].HolderID = as.players[c.CurrentHolder].ID
			infos[i].HolderName = as.players[c.CurrentHolder].Name
		}
	}
	return infos
}

// ToAuctionData 转换为可序列化的快照
func (as *AuctionSession) ToAuctionData() *storage.AuctionData {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.toAuctionDataLocked()
}

func (as *AuctionSession) toAuctionDataLocked() *storage.AuctionData {
	data := &storage.AuctionData{
		RoomCode:  as.room.Code,
		Edition:   string(as.room.Edition),
		Phase:     auction.PhaseSetup.String(),
		PlayerIDs: make([]string, len(as.players)),
		Position:  as.pos,
		Seed:      as.seed,
		UpdatedAt: time.Now().Unix(),
	}
	for i, p := range as.players {
		data.PlayerIDs[i] = p.ID
	}
	if as.state == nil {
		return data
	}

	// 快照在锁外异步写入，不能与会话共享切片
	st := as.state.Clone()
	data.Phase = st.Phase.String()
	data.PlayOrder = st.PlayOrder
	data.Log = st.Log
	data.Combinations = make([]storage.CombinationData, len(st.Combinations))
	for i, c := range st.Combinations {
		data.Combinations[i] = storage.CombinationData{
			Faction:       string(c.Faction),
			Mat:           string(c.Mat),
			CurrentBid:    c.CurrentBid,
			CurrentHolder: c.CurrentHolder,
		}
	}
	return data
}

// saveLocked 异步保存快照
//
// 拍卖结束后房间记录的过期时间缩短为快照的过期时间，两者一起失效。
func (as *AuctionSession) saveLocked() {
	if as.opts.Store == nil {
		return
	}
	data := as.toAuctionDataLocked()
	ended := as.state != nil && as.state.Phase == auction.PhaseComplete
	as.storeLocked(func(ctx context.Context, store *storage.RedisStore) error {
		if err := store.SaveAuction(ctx, data, as.opts.SnapshotTTL); err != nil {
			return err
		}
		if ended && as.opts.SnapshotTTL > 0 {
			return store.SetRoomExpiration(ctx, data.RoomCode, as.opts.SnapshotTTL)
		}
		return nil
	})
}

// Discard 删除未完成拍卖的快照，房间被移除后调用
//
// 已完成的拍卖保留快照供查询日志，直到过期。
func (as *AuctionSession) Discard() {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.opts.Store == nil || (as.state != nil && as.state.Phase == auction.PhaseComplete) {
		return
	}
	code := as.room.Code
	as.storeLocked(func(ctx context.Context, store *storage.RedisStore) error {
		return store.DeleteAuction(ctx, code)
	})
}

// storeLocked 按调用顺序异步执行存储操作，落后的操作直接丢弃
func (as *AuctionSession) storeLocked(op func(context.Context, *storage.RedisStore) error) {
	as.saveSeq++
	seq := as.saveSeq
	code := as.room.Code
	go func() {
		as.saveMu.Lock()
		defer as.saveMu.Unlock()
		if seq <= as.savedSeq {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := op(ctx, as.opts.Store); err != nil {
			log.Warn().Err(err).Str("room", code).Msg("auction snapshot store failed")
			return
		}
		as.savedSeq = seq
	}()
}
