package protocol

// 错误码
const (
	ErrCodeUnknown           = 1000
	ErrCodeInvalidMsg        = 1001
	ErrCodeRateLimit         = 1002 // 速率限制
	ErrCodeRoomNotFound      = 2001
	ErrCodeRoomFull          = 2002
	ErrCodeNotInRoom         = 2003
	ErrCodeAuctionStarted    = 2004 // 拍卖已开始
	ErrCodeInvalidEdition    = 2005
	ErrCodeAuctionNotStart   = 3001
	ErrCodeNotYourTurn       = 3002
	ErrCodeUnknownFaction    = 3003
	ErrCodeBidTooLow         = 3004
	ErrCodeNonIntegerBid     = 3005
	ErrCodeAuctionComplete   = 3006
	ErrCodeGenerationFailed  = 3007 // 无法生成合规组合
	ErrCodeBidTooHigh        = 3008
	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "未知错误",
	ErrCodeInvalidMsg:        "无效的消息格式",
	ErrCodeRateLimit:         "请求过于频繁",
	ErrCodeRoomNotFound:      "房间不存在",
	ErrCodeRoomFull:          "房间已满",
	ErrCodeNotInRoom:         "您不在房间中",
	ErrCodeAuctionStarted:    "拍卖已开始",
	ErrCodeInvalidEdition:    "未知的游戏版本",
	ErrCodeAuctionNotStart:   "拍卖尚未开始",
	ErrCodeNotYourTurn:       "还没轮到您",
	ErrCodeUnknownFaction:    "该派系不在本局组合中",
	ErrCodeBidTooLow:         "出价过低",
	ErrCodeNonIntegerBid:     "出价必须是整数",
	ErrCodeAuctionComplete:   "拍卖已结束",
	ErrCodeGenerationFailed:  "无法生成派系组合",
	ErrCodeBidTooHigh:        "出价超过上限",
	ErrCodeServerMaintenance: "服务器维护中",
}
