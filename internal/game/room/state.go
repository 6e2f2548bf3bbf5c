package room

// RoomState 房间状态
type RoomState int

const (
	RoomStateWaiting RoomState = iota // 等待玩家准备
	RoomStateBidding                  // 拍卖进行中
	RoomStateEnded                    // 拍卖已结束，等待清理
)

func (s RoomState) String() string {
	switch s {
	case RoomStateWaiting:
		return "waiting"
	case RoomStateBidding:
		return "bidding"
	case RoomStateEnded:
		return "ended"
	default:
		return "unknown"
	}
}
