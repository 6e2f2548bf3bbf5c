package auction

import (
	"errors"
	"fmt"
)

// 配置与生成错误
var (
	ErrConfiguration       = errors.New("auction: invalid configuration")
	ErrGenerationExhausted = errors.New("auction: no valid combination batch within attempt cap")
)

// 出价错误
var (
	ErrUnknownFaction  = errors.New("auction: faction not in play")
	ErrBidTooLow       = errors.New("auction: bid too low")
	ErrNonIntegerBid   = errors.New("auction: bid must be an integer")
	ErrBidTooHigh      = fmt.Errorf("auction: bid exceeds maximum %d", MaxBid)
	ErrInvalidSeat     = errors.New("auction: seat out of range")
	ErrAuctionComplete = errors.New("auction: auction already complete")
	ErrNoEligibleSeat  = errors.New("auction: every seat already holds a combination")
)

// BidTooLowError 携带最低可接受出价，errors.Is(err, ErrBidTooLow) 为真
type BidTooLowError struct {
	Faction Faction
	Mat     Mat
	Current int
	Minimum int
}

func (e *BidTooLowError) Error() string {
	if e.Current < 0 {
		return "auction: you must bid at least 0"
	}
	return fmt.Sprintf("auction: the current bid for %s %s is %d, you must bid at least %d",
		e.Faction, e.Mat, e.Current, e.Minimum)
}

func (e *BidTooLowError) Is(target error) bool {
	return target == ErrBidTooLow
}
