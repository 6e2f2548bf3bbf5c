//go:build !production

package room

import (
	"time"

	"github.com/palemoky/scythe-bidder/internal/game/auction"
	"github.com/palemoky/scythe-bidder/internal/types"
)

// NewMockRoom 创建测试用的 Room，clients 按顺序占据座位 0..n-1
func NewMockRoom(code string, clients ...types.ClientInterface) *Room {
	room := &Room{
		Code:       code,
		Edition:    auction.EditionIFA,
		MaxPlayers: 7,
		State:      RoomStateWaiting,
		Players:    make(map[string]*RoomPlayer),
		CreatedAt:  time.Now(),
	}
	for i, c := range clients {
		room.Players[c.GetID()] = &RoomPlayer{Client: c, Seat: i}
		room.PlayerOrder = append(room.PlayerOrder, c.GetID())
		c.SetRoom(code)
	}
	return room
}

// AddRoomForTest 添加房间用于测试
func (rm *RoomManager) AddRoomForTest(room *Room) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.rooms[room.Code] = room
}
