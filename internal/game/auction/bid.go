package auction

import (
	"fmt"
	"math"
)

// MaxBid 单次出价上限
const MaxBid = math.MaxInt32

// BidResult 一次成功出价的结果
type BidResult struct {
	Seat      int     `json:"seat"`
	Faction   Faction `json:"faction"`
	Mat       Mat     `json:"mat"`
	Amount    int     `json:"amount"`
	Displaced int     `json:"displaced"` // 被超越的原持有者，NoHolder 表示无
	Complete  bool    `json:"complete"`
}

// SubmitBid 校验并应用一次出价
//
// 全部校验通过后才写入状态，被拒绝的出价不会改变任何字段。
// 座位必须在范围内，但这里不校验是否轮到该座位，轮次由调用方通过
// NextEligibleSeat 保证。
func (s *State) SubmitBid(seat int, faction Faction, amount float64) (BidResult, error) {
	if s.Phase == PhaseComplete || s.IsComplete() {
		return BidResult{}, ErrAuctionComplete
	}
	if seat < 0 || seat >= len(s.Seats) {
		return BidResult{}, fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}

	i := s.indexOf(faction)
	if i < 0 {
		return BidResult{}, fmt.Errorf("%w: %s", ErrUnknownFaction, faction)
	}
	combo := s.Combinations[i]

	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount != math.Trunc(amount) {
		return BidResult{}, ErrNonIntegerBid
	}
	if amount > MaxBid {
		return BidResult{}, ErrBidTooHigh
	}
	if amount < float64(combo.MinimumBid()) || amount < 0 {
		return BidResult{}, &BidTooLowError{
			Faction: combo.Faction,
			Mat:     combo.Mat,
			Current: combo.CurrentBid,
			Minimum: combo.MinimumBid(),
		}
	}

	bid := int(amount)
	result := BidResult{
		Seat:      seat,
		Faction:   combo.Faction,
		Mat:       combo.Mat,
		Amount:    bid,
		Displaced: combo.CurrentHolder,
	}
	if result.Displaced == seat {
		result.Displaced = NoHolder
	}

	s.Combinations[i].CurrentBid = bid
	s.Combinations[i].CurrentHolder = seat
	s.Log = append(s.Log, fmt.Sprintf("%s bid %d on %s %s", s.SeatName(seat), bid, combo.Faction, combo.Mat))

	if s.IsComplete() {
		s.Phase = PhaseComplete
		s.Log = append(s.Log, "Auction complete!", s.Results())
		result.Complete = true
	}
	return result, nil
}
