package apperrors

import (
	"errors"

	"github.com/palemoky/scythe-bidder/internal/game/auction"
	"github.com/palemoky/scythe-bidder/internal/protocol"
)

// GameError 游戏错误（房间和会话共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound     = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrRoomFull         = &GameError{Code: protocol.ErrCodeRoomFull, Message: "房间已满"}
	ErrNotInRoom        = &GameError{Code: protocol.ErrCodeNotInRoom, Message: "您不在房间中"}
	ErrAuctionStarted   = &GameError{Code: protocol.ErrCodeAuctionStarted, Message: "拍卖已开始"}
	ErrInvalidEdition   = &GameError{Code: protocol.ErrCodeInvalidEdition, Message: "未知的游戏版本"}
	ErrAuctionNotStart  = &GameError{Code: protocol.ErrCodeAuctionNotStart, Message: "拍卖尚未开始"}
	ErrNotYourTurn      = &GameError{Code: protocol.ErrCodeNotYourTurn, Message: "还没轮到您"}
	ErrUnknownFaction   = &GameError{Code: protocol.ErrCodeUnknownFaction, Message: "该派系不在本局组合中"}
	ErrNonIntegerBid    = &GameError{Code: protocol.ErrCodeNonIntegerBid, Message: "出价必须是整数"}
	ErrAuctionComplete  = &GameError{Code: protocol.ErrCodeAuctionComplete, Message: "拍卖已结束"}
	ErrGenerationFailed = &GameError{Code: protocol.ErrCodeGenerationFailed, Message: "无法生成派系组合"}
	ErrBidTooHigh       = &GameError{Code: protocol.ErrCodeBidTooHigh, Message: "出价超过上限"}
)

// FromAuction 将拍卖核心的错误转换为带错误码的 GameError
//
// 出价过低时保留核心给出的文本，其中包含最低可接受出价。
func FromAuction(err error) *GameError {
	if err == nil {
		return nil
	}

	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr
	}

	var tooLow *auction.BidTooLowError
	switch {
	case errors.As(err, &tooLow):
		return &GameError{Code: protocol.ErrCodeBidTooLow, Message: tooLow.Error()}
	case errors.Is(err, auction.ErrAuctionComplete):
		return ErrAuctionComplete
	case errors.Is(err, auction.ErrUnknownFaction):
		return ErrUnknownFaction
	case errors.Is(err, auction.ErrNonIntegerBid):
		return ErrNonIntegerBid
	case errors.Is(err, auction.ErrBidTooHigh):
		return ErrBidTooHigh
	case errors.Is(err, auction.ErrInvalidSeat):
		return ErrNotInRoom
	case errors.Is(err, auction.ErrGenerationExhausted):
		return ErrGenerationFailed
	case errors.Is(err, auction.ErrConfiguration):
		return ErrInvalidEdition
	default:
		return &GameError{Code: protocol.ErrCodeUnknown, Message: err.Error()}
	}
}
