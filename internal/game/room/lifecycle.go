package room

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/apperrors"
	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
	"github.com/palemoky/scythe-bidder/internal/types"
)

// offlineGraceSeconds 告知其他玩家的重连等待时间
const offlineGraceSeconds = 120

// Reopen 开局失败时回到等待状态，所有玩家需要重新准备
func (r *Room) Reopen() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.State = RoomStateWaiting
	for _, player := range r.Players {
		player.Ready = false
	}
}

// NotifyPlayerOffline 通知房间内其他玩家某个玩家掉线
//
// 玩家保留座位等待重连；所有玩家都离线时房间被移除。
func (rm *RoomManager) NotifyPlayerOffline(client types.ClientInterface) {
	roomCode := client.GetRoom()
	if roomCode == "" {
		return
	}

	rm.mu.RLock()
	room, exists := rm.rooms[roomCode]
	rm.mu.RUnlock()
	if !exists {
		return
	}

	room.mu.Lock()

	// 标记当前玩家为离线
	if player, exists := room.Players[client.GetID()]; exists {
		player.Client = nil
	}

	allOffline := true
	for _, player := range room.Players {
		if player.Client != nil {
			allOffline = false
			player.Client.SendMessage(codec.MustNewMessage(protocol.MsgPlayerOffline, protocol.PlayerOfflinePayload{
				PlayerID:   client.GetID(),
				PlayerName: client.GetName(),
				Timeout:    offlineGraceSeconds,
			}))
		}
	}

	if allOffline {
		room.State = RoomStateEnded
		room.mu.Unlock()

		log.Info().Str("room", roomCode).Msg("all players disconnected, removing room")
		rm.removeRoom(roomCode)
		return
	}
	room.mu.Unlock()

	log.Info().Str("room", roomCode).Str("player", client.GetName()).Msg("player offline")
}

// ReconnectPlayer 玩家重连到房间
func (rm *RoomManager) ReconnectPlayer(oldClient, newClient types.ClientInterface) error {
	roomCode := oldClient.GetRoom()
	if roomCode == "" {
		return nil // 不在房间中，无需重连
	}

	rm.mu.RLock()
	room, exists := rm.rooms[roomCode]
	rm.mu.RUnlock()
	if !exists {
		return apperrors.ErrRoomNotFound
	}

	room.mu.Lock()

	player, exists := room.Players[oldClient.GetID()]
	if !exists {
		room.mu.Unlock()
		return apperrors.ErrNotInRoom
	}

	// 更新客户端引用
	player.Client = newClient
	newClient.SetRoom(roomCode)

	room.broadcastExceptLocked(newClient.GetID(), codec.MustNewMessage(protocol.MsgPlayerOnline, protocol.PlayerOnlinePayload{
		PlayerID:   newClient.GetID(),
		PlayerName: newClient.GetName(),
	}))
	room.mu.Unlock()

	log.Info().Str("room", roomCode).Str("player", newClient.GetName()).Msg("player reconnected")

	return nil
}

// generateRoomCode 生成房间号，调用方持有 rm.mu
func (rm *RoomManager) generateRoomCode() string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeChars[rand.IntN(len(roomCodeChars))]
		}
		codeStr := string(code)
		if _, exists := rm.rooms[codeStr]; !exists {
			return codeStr
		}
	}
}

// removeRoom 移除房间并触发回调
func (rm *RoomManager) removeRoom(code string) {
	rm.mu.Lock()
	delete(rm.rooms, code)
	onRemove := rm.onRemove
	rm.mu.Unlock()

	rm.deleteRoomData(code)
	if onRemove != nil {
		onRemove(code)
	}
}

// PurgeStaleRooms 清理上一个进程遗留的房间记录，返回删除的数量
//
// 房间只存在于内存，重启后 Redis 中未结束的房间既不能加入也不能继续。
// 已结束的房间保留到过期，供查询结果。
func (rm *RoomManager) PurgeStaleRooms(ctx context.Context) (int, error) {
	codes, err := rm.redisStore.GetAllRoomCodes(ctx)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, code := range codes {
		if rm.GetRoom(code) != nil {
			continue
		}
		data, err := rm.redisStore.LoadRoom(ctx, code)
		if err != nil {
			log.Warn().Err(err).Str("room", code).Msg("load stale room failed")
			continue
		}
		if data == nil || RoomState(data.State) == RoomStateEnded {
			continue
		}
		if err := rm.redisStore.DeleteRoom(ctx, code); err != nil {
			return purged, err
		}
		purged++
		log.Info().Str("room", code).Str("state", RoomState(data.State).String()).Int("players", len(data.Players)).Msg("stale room purged")
	}
	return purged, nil
}

// cleanupLoop 定期清理超时房间
func (rm *RoomManager) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rm.cleanup()
	}
}

// cleanup 清理等待超时的房间和已结束的房间
func (rm *RoomManager) cleanup() {
	now := time.Now()
	var expired []*Room

	rm.mu.RLock()
	for _, room := range rm.rooms {
		room.mu.RLock()
		switch {
		case room.State == RoomStateWaiting && now.Sub(room.CreatedAt) > rm.roomTimeout:
			expired = append(expired, room)
		case room.State == RoomStateEnded && now.Sub(room.EndedAt) > rm.roomTimeout:
			expired = append(expired, room)
		}
		room.mu.RUnlock()
	}
	rm.mu.RUnlock()

	for _, room := range expired {
		room.Broadcast(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "房间超时已关闭"))

		room.mu.RLock()
		for _, p := range room.Players {
			if p.Client != nil {
				p.Client.SetRoom("")
			}
		}
		room.mu.RUnlock()

		rm.removeRoom(room.Code)
		log.Info().Str("room", room.Code).Str("state", room.GetState().String()).Msg("room expired")
	}
}
