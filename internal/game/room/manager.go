package room

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/apperrors"
	"github.com/palemoky/scythe-bidder/internal/game/auction"
	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
	"github.com/palemoky/scythe-bidder/internal/types"
)

// CreateRoom 创建房间，edition 为空时使用默认版本
func (rm *RoomManager) CreateRoom(client types.ClientInterface, edition auction.Edition) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if edition == "" {
		edition = rm.defaultEdition
	}
	cat, err := auction.CatalogFor(edition)
	if err != nil {
		return nil, apperrors.ErrInvalidEdition
	}

	// 生成唯一房间号
	code := rm.generateRoomCode()

	room := &Room{
		Code:        code,
		Edition:     edition,
		MaxPlayers:  cat.MaxSeats,
		State:       RoomStateWaiting,
		Players:     make(map[string]*RoomPlayer),
		PlayerOrder: make([]string, 0, cat.MaxSeats),
		CreatedAt:   time.Now(),
	}

	// 添加创建者
	room.Players[client.GetID()] = &RoomPlayer{
		Client: client,
		Seat:   0,
	}
	room.PlayerOrder = append(room.PlayerOrder, client.GetID())
	client.SetRoom(code)

	rm.rooms[code] = room
	rm.saveRoomLocked(room)

	log.Info().Str("room", code).Str("edition", string(edition)).Str("player", client.GetName()).Msg("room created")

	return room, nil
}

// JoinRoom 加入房间
func (rm *RoomManager) JoinRoom(client types.ClientInterface, code string) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, exists := rm.rooms[code]
	if !exists {
		return nil, apperrors.ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.State != RoomStateWaiting {
		return nil, apperrors.ErrAuctionStarted
	}

	if len(room.Players) >= room.MaxPlayers {
		return nil, apperrors.ErrRoomFull
	}

	// 分配座位
	room.Players[client.GetID()] = &RoomPlayer{
		Client: client,
		Seat:   room.freeSeatLocked(),
	}
	room.PlayerOrder = append(room.PlayerOrder, client.GetID())
	client.SetRoom(code)

	log.Info().Str("room", code).Str("player", client.GetName()).Msg("player joined")

	// 通知房间内其他玩家
	room.broadcastExceptLocked(client.GetID(), codec.MustNewMessage(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		Player: room.playerInfoLocked(client.GetID()),
	}))

	rm.saveRoomLocked(room)

	return room, nil
}

// LeaveRoom 离开房间
//
// 拍卖进行中不能离开，断线由 NotifyPlayerOffline 处理。
func (rm *RoomManager) LeaveRoom(client types.ClientInterface) error {
	roomCode := client.GetRoom()
	if roomCode == "" {
		return nil
	}

	rm.mu.RLock()
	room, exists := rm.rooms[roomCode]
	rm.mu.RUnlock()
	if !exists {
		client.SetRoom("")
		return nil
	}

	room.mu.Lock()

	player, exists := room.Players[client.GetID()]
	if !exists {
		room.mu.Unlock()
		client.SetRoom("")
		return nil
	}

	if room.State == RoomStateBidding {
		room.mu.Unlock()
		return apperrors.ErrAuctionStarted
	}

	// 通知其他玩家
	room.broadcastExceptLocked(client.GetID(), codec.MustNewMessage(protocol.MsgPlayerLeft, protocol.PlayerLeftPayload{
		PlayerID:   client.GetID(),
		PlayerName: client.GetName(),
	}))

	delete(room.Players, client.GetID())
	for i, id := range room.PlayerOrder {
		if id == client.GetID() {
			room.PlayerOrder = append(room.PlayerOrder[:i], room.PlayerOrder[i+1:]...)
			break
		}
	}
	client.SetRoom("")
	empty := len(room.Players) == 0
	if !empty {
		rm.saveRoomLocked(room)
	}
	room.mu.Unlock()

	log.Info().Str("room", roomCode).Str("player", client.GetName()).Int("seat", player.Seat).Msg("player left")

	// 如果房间空了，删除房间
	if empty {
		rm.removeRoom(roomCode)
		log.Info().Str("room", roomCode).Msg("room dissolved")
	}
	return nil
}

// SetPlayerReady 设置玩家准备状态，所有人准备后开始拍卖
func (rm *RoomManager) SetPlayerReady(client types.ClientInterface, ready bool) error {
	roomCode := client.GetRoom()
	if roomCode == "" {
		return apperrors.ErrNotInRoom
	}

	rm.mu.RLock()
	room, exists := rm.rooms[roomCode]
	onStart := rm.onStart
	rm.mu.RUnlock()
	if !exists {
		return apperrors.ErrRoomNotFound
	}

	room.mu.Lock()

	player, exists := room.Players[client.GetID()]
	if !exists {
		room.mu.Unlock()
		return apperrors.ErrNotInRoom
	}
	if room.State != RoomStateWaiting {
		room.mu.Unlock()
		return apperrors.ErrAuctionStarted
	}

	player.Ready = ready

	// 广播准备状态
	room.broadcastExceptLocked("", codec.MustNewMessage(protocol.MsgPlayerReady, protocol.PlayerReadyPayload{
		PlayerID: client.GetID(),
		Ready:    ready,
	}))

	start := room.checkAllReady()
	if start {
		room.State = RoomStateBidding
	}
	rm.saveRoomLocked(room)
	room.mu.Unlock()

	if start {
		log.Info().Str("room", roomCode).Msg("all players ready, starting auction")
		if onStart != nil {
			onStart(room)
		}
	}
	return nil
}

// GetRoom 获取房间
func (rm *RoomManager) GetRoom(code string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[code]
}

// GetRoomList 获取可加入的房间列表
func (rm *RoomManager) GetRoomList() []protocol.RoomListItem {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	rooms := make([]protocol.RoomListItem, 0, len(rm.rooms))
	for code, room := range rm.rooms {
		room.mu.RLock()
		// 只返回等待中且未满的房间
		if room.State == RoomStateWaiting && len(room.Players) < room.MaxPlayers {
			rooms = append(rooms, protocol.RoomListItem{
				RoomCode:    code,
				Edition:     string(room.Edition),
				PlayerCount: len(room.Players),
				MaxPlayers:  room.MaxPlayers,
			})
		}
		room.mu.RUnlock()
	}
	return rooms
}

// GetRoomByPlayerID 通过玩家 ID 获取房间
func (rm *RoomManager) GetRoomByPlayerID(playerID string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	for _, room := range rm.rooms {
		room.mu.RLock()
		_, exists := room.Players[playerID]
		room.mu.RUnlock()
		if exists {
			return room
		}
	}
	return nil
}

// GetActiveAuctionsCount 获取进行中的拍卖数量
func (rm *RoomManager) GetActiveAuctionsCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	count := 0
	for _, room := range rm.rooms {
		if room.GetState() == RoomStateBidding {
			count++
		}
	}
	return count
}

// saveRoomLocked 异步保存到 Redis，调用方已持有 room.mu 或房间尚未公开
func (rm *RoomManager) saveRoomLocked(room *Room) {
	data := room.toRoomDataLocked()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rm.redisStore.SaveRoom(ctx, data.Code, data); err != nil {
			log.Warn().Err(err).Str("room", data.Code).Msg("save room failed")
		}
	}()
}

// deleteRoomData 异步删除 Redis 中的房间数据
func (rm *RoomManager) deleteRoomData(code string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rm.redisStore.DeleteRoom(ctx, code); err != nil {
			log.Warn().Err(err).Str("room", code).Msg("delete room failed")
		}
	}()
}
