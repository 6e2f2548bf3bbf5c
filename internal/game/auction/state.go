package auction

import (
	"fmt"
	"strings"
)

// NoHolder 组合尚无持有者
const NoHolder = -1

// Combination 参与拍卖的派系/玩家板组合
type Combination struct {
	Faction       Faction `json:"faction"`
	Mat           Mat     `json:"mat"`
	CurrentBid    int     `json:"current_bid"`    // -1 表示尚无出价
	CurrentHolder int     `json:"current_holder"` // 座位号，NoHolder 表示无人持有
}

func newCombination(f Faction, m Mat) Combination {
	return Combination{Faction: f, Mat: m, CurrentBid: -1, CurrentHolder: NoHolder}
}

// HasHolder 是否已有持有者
func (c Combination) HasHolder() bool {
	return c.CurrentHolder != NoHolder
}

// MinimumBid 当前可接受的最低出价
func (c Combination) MinimumBid() int {
	return c.CurrentBid + 1
}

// Seat 座位，Index 在一局中稳定不变
type Seat struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Phase 拍卖阶段
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseInProgress
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseInProgress:
		return "in_progress"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// State 一局拍卖的完整状态，调用方负责串行化访问
type State struct {
	Catalog      Catalog
	Combinations []Combination // 按 OrderCombinations 的行动顺序
	Seats        []Seat
	PlayOrder    []int // 出价顺序（座位号），Setup 时随机打乱
	Phase        Phase
	Log          []string
}

// Setup 生成组合、排定组合顺序并打乱座位出价顺序
func Setup(cat Catalog, seatNames []string, rules Rules, rng Source) (*State, error) {
	combos, err := Generate(cat, len(seatNames), rules, rng)
	if err != nil {
		return nil, err
	}

	seats := make([]Seat, len(seatNames))
	for i, name := range seatNames {
		seats[i] = Seat{Index: i, Name: name}
	}

	s := &State{
		Catalog:      cat,
		Combinations: OrderCombinations(combos, cat),
		Seats:        seats,
		PlayOrder:    ShufflePlayOrder(len(seats), rng),
		Phase:        PhaseInProgress,
		Log:          []string{"Auction start!"},
	}
	return s, nil
}

// IsComplete 所有组合都有持有者时拍卖结束
func IsComplete(combos []Combination) bool {
	for _, c := range combos {
		if !c.HasHolder() {
			return false
		}
	}
	return true
}

// IsComplete 见包级 IsComplete
func (s *State) IsComplete() bool {
	return IsComplete(s.Combinations)
}

// EventLog 返回事件日志副本
func (s *State) EventLog() []string {
	return append([]string(nil), s.Log...)
}

// Combination 按派系查找组合
func (s *State) Combination(f Faction) (Combination, bool) {
	i := s.indexOf(f)
	if i < 0 {
		return Combination{}, false
	}
	return s.Combinations[i], true
}

// Holds 座位是否持有任一组合
func (s *State) Holds(seat int) bool {
	for _, c := range s.Combinations {
		if c.CurrentHolder == seat {
			return true
		}
	}
	return false
}

// SeatName 返回座位名，越界时返回 "Seat N"
func (s *State) SeatName(seat int) string {
	if seat >= 0 && seat < len(s.Seats) && s.Seats[seat].Name != "" {
		return s.Seats[seat].Name
	}
	return fmt.Sprintf("Seat %d", seat)
}

// Results 按组合顺序列出最终归属
func (s *State) Results() string {
	parts := make([]string, 0, len(s.Combinations))
	for _, c := range s.Combinations {
		holder := "-"
		if c.HasHolder() {
			holder = s.SeatName(c.CurrentHolder)
		}
		parts = append(parts, fmt.Sprintf("%s %s: %s ($%d)", c.Faction, c.Mat, holder, c.CurrentBid))
	}
	return strings.Join(parts, ", ")
}

// Clone 深拷贝，用于快照
func (s *State) Clone() *State {
	c := *s
	c.Catalog = Catalog{
		Factions: append([]Faction(nil), s.Catalog.Factions...),
		Mats:     append([]Mat(nil), s.Catalog.Mats...),
		MinSeats: s.Catalog.MinSeats,
		MaxSeats: s.Catalog.MaxSeats,
	}
	c.Combinations = append([]Combination(nil), s.Combinations...)
	c.Seats = append([]Seat(nil), s.Seats...)
	c.PlayOrder = append([]int(nil), s.PlayOrder...)
	c.Log = append([]string(nil), s.Log...)
	return &c
}

func (s *State) indexOf(f Faction) int {
	for i, c := range s.Combinations {
		if c.Faction == f {
			return i
		}
	}
	return -1
}
