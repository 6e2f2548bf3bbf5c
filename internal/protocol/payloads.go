package protocol

// --- 客户端请求 Payloads ---

// ReconnectPayload 断线重连请求
type ReconnectPayload struct {
	Token    string `json:"token"`     // 重连令牌
	PlayerID string `json:"player_id"` // 玩家 ID
}

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateRoomPayload 创建房间请求，Edition 为空时使用服务端默认版本
type CreateRoomPayload struct {
	Edition string `json:"edition,omitempty"` // base | ifa
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomCode string `json:"room_code"`
}

// BidPayload 出价请求
//
// Amount 使用浮点数接收，由拍卖核心判断是否为整数。
type BidPayload struct {
	Faction string  `json:"faction"`
	Amount  float64 `json:"amount"`
}

// GetLogPayload 查询事件日志，RoomCode 为空时查询当前房间
type GetLogPayload struct {
	RoomCode string `json:"room_code,omitempty"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID       string `json:"player_id"`
	PlayerName     string `json:"player_name"`
	ReconnectToken string `json:"reconnect_token"` // 重连令牌
}

// ReconnectedPayload 重连成功响应
type ReconnectedPayload struct {
	PlayerID     string           `json:"player_id"`
	PlayerName   string           `json:"player_name"`
	RoomCode     string           `json:"room_code,omitempty"`     // 如果在房间中
	AuctionState *AuctionStateDTO `json:"auction_state,omitempty"` // 如果拍卖进行中
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// PlayerOfflinePayload 玩家掉线通知
type PlayerOfflinePayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Timeout    int    `json:"timeout"` // 等待重连超时（秒）
}

// PlayerOnlinePayload 玩家上线通知
type PlayerOnlinePayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// OnlineCountPayload 在线人数
type OnlineCountPayload struct {
	Count int `json:"count"`
}

// RoomCreatedPayload 房间创建成功响应
type RoomCreatedPayload struct {
	RoomCode string     `json:"room_code"`
	Edition  string     `json:"edition"`
	Player   PlayerInfo `json:"player"`
}

// RoomJoinedPayload 加入房间成功响应
type RoomJoinedPayload struct {
	RoomCode string       `json:"room_code"`
	Edition  string       `json:"edition"`
	Player   PlayerInfo   `json:"player"`
	Players  []PlayerInfo `json:"players"` // 房间内所有玩家
}

// PlayerJoinedPayload 其他玩家加入通知
type PlayerJoinedPayload struct {
	Player PlayerInfo `json:"player"`
}

// PlayerLeftPayload 玩家离开通知
type PlayerLeftPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// PlayerReadyPayload 玩家准备通知
type PlayerReadyPayload struct {
	PlayerID string `json:"player_id"`
	Ready    bool   `json:"ready"`
}

// AuctionStartPayload 拍卖开始通知
type AuctionStartPayload struct {
	State AuctionStateDTO `json:"state"`
}

// BidTurnPayload 轮到出价通知
type BidTurnPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// BidResultPayload 出价成功通知
type BidResultPayload struct {
	PlayerID      string `json:"player_id"`
	PlayerName    string `json:"player_name"`
	Faction       string `json:"faction"`
	Mat           string `json:"mat"`
	Amount        int    `json:"amount"`
	DisplacedID   string `json:"displaced_id,omitempty"` // 被超越的原持有者
	DisplacedName string `json:"displaced_name,omitempty"`
}

// AuctionOverPayload 拍卖结束通知
type AuctionOverPayload struct {
	Combinations []CombinationInfo `json:"combinations"`
	Summary      string            `json:"summary"`
}

// AuctionLogPayload 事件日志
type AuctionLogPayload struct {
	RoomCode string   `json:"room_code"`
	Log      []string `json:"log"`
}

// MaintenancePayload 维护模式通知
type MaintenancePayload struct {
	Maintenance bool `json:"maintenance"` // 是否在维护模式
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RoomListResultPayload 房间列表结果
type RoomListResultPayload struct {
	Rooms []RoomListItem `json:"rooms"`
}

// RoomListItem 房间列表项
type RoomListItem struct {
	RoomCode    string `json:"room_code"`
	Edition     string `json:"edition"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
}

// --- 通用数据结构 ---

// PlayerInfo 玩家信息
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Seat   int    `json:"seat"`
	Ready  bool   `json:"ready"`
	Online bool   `json:"online"`
}

// CombinationInfo 派系/玩家板组合及其出价状态
type CombinationInfo struct {
	Faction    string `json:"faction"`
	Mat        string `json:"mat"`
	CurrentBid int    `json:"current_bid"` // -1 表示尚无出价
	HolderID   string `json:"holder_id,omitempty"`
	HolderName string `json:"holder_name,omitempty"`
}

// AuctionStateDTO 拍卖状态（用于开局、查询与重连恢复）
type AuctionStateDTO struct {
	Phase        string            `json:"phase"`
	Edition      string            `json:"edition"`
	Combinations []CombinationInfo `json:"combinations"` // 按行动顺序
	PlayOrder    []PlayerInfo      `json:"play_order"`   // 出价顺序
	CurrentTurn  string            `json:"current_turn,omitempty"`
	Log          []string          `json:"log"`
}
