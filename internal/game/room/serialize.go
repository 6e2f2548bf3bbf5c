package room

import (
	"github.com/palemoky/scythe-bidder/internal/server/storage"
)

// ToRoomData 将 Room 转换为可序列化的 RoomData
func (r *Room) ToRoomData() *storage.RoomData {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.toRoomDataLocked()
}

func (r *Room) toRoomDataLocked() *storage.RoomData {
	data := &storage.RoomData{
		Code:        r.Code,
		Edition:     string(r.Edition),
		State:       int(r.State),
		Players:     make([]storage.PlayerData, 0, len(r.Players)),
		PlayerOrder: append([]string(nil), r.PlayerOrder...),
		CreatedAt:   r.CreatedAt.Unix(),
	}

	for _, id := range r.seatOrderLocked() {
		player := r.Players[id]
		pd := storage.PlayerData{
			ID:    id,
			Seat:  player.Seat,
			Ready: player.Ready,
		}
		if player.Client != nil {
			pd.Name = player.Client.GetName()
		}
		data.Players = append(data.Players, pd)
	}

	return data
}
