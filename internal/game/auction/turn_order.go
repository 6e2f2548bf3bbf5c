package auction

import "fmt"

// OrderCombinations 按实际行动顺序排列组合
//
// 起始优先级最高（玩家板下标最小）的组合先行动，其余组合按其派系在
// 棋盘上相对首位玩家的顺时针位置依次排列。结果与生成顺序无关。
func OrderCombinations(combos []Combination, cat Catalog) []Combination {
	if len(combos) == 0 {
		return combos
	}

	first := 0
	for i, c := range combos {
		if cat.MatIndex(c.Mat) < cat.MatIndex(combos[first].Mat) {
			first = i
		}
	}

	start := cat.FactionIndex(combos[first].Faction)
	if start < 0 {
		return combos
	}

	byFaction := make(map[Faction]Combination, len(combos))
	for _, c := range combos {
		byFaction[c.Faction] = c
	}

	ordered := make([]Combination, 0, len(combos))
	n := len(cat.Factions)
	for i := range n {
		if c, ok := byFaction[cat.Factions[(start+i)%n]]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered
}

// ShufflePlayOrder 返回座位号 0..n-1 的随机排列
func ShufflePlayOrder(n int, rng Source) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// NextEligibleSeat 返回下一个可以出价的出价顺序位置
//
// 从 lastPos 之后循环前进，跳过已经持有组合的座位。连续跳过 n 次仍未
// 找到说明拍卖已结束，返回 ErrNoEligibleSeat；调用方应先检查 IsComplete。
func (s *State) NextEligibleSeat(lastPos int) (int, error) {
	n := len(s.PlayOrder)
	if n == 0 {
		return 0, fmt.Errorf("%w: empty play order", ErrConfiguration)
	}

	pos := lastPos
	for range n {
		pos = (pos + 1) % n
		if pos < 0 {
			pos += n
		}
		if !s.Holds(s.PlayOrder[pos]) {
			return pos, nil
		}
	}
	return 0, ErrNoEligibleSeat
}
