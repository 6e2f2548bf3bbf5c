package auction

import "fmt"

// Generate 为 n 个座位随机生成派系/玩家板组合
//
// 每个座位不放回地独立抽取派系和玩家板。整批出现禁用组合即重抽；
// 否则按争议玩家板数量 k 以 RejectWeight*k 的概率整批重抽，用来抵消
// 禁用规则带来的组合概率偏差。超过 MaxAttempts 返回 ErrGenerationExhausted。
func Generate(cat Catalog, n int, rules Rules, rng Source) ([]Combination, error) {
	if err := cat.validate(n); err != nil {
		return nil, err
	}

	maxAttempts := rules.maxAttempts()
	for range maxAttempts {
		combos := drawBatch(cat, n, rng)
		if rules.anyBanned(combos) {
			continue
		}
		if k := rules.contestedCount(combos); k > 0 && rng.Float64() < rules.RejectWeight*float64(k) {
			continue
		}
		return combos, nil
	}

	return nil, fmt.Errorf("%w: %d seats, %d attempts", ErrGenerationExhausted, n, maxAttempts)
}

// drawBatch 不放回抽取一整批候选组合
func drawBatch(cat Catalog, n int, rng Source) []Combination {
	factions := append([]Faction(nil), cat.Factions...)
	mats := append([]Mat(nil), cat.Mats...)

	combos := make([]Combination, 0, n)
	for range n {
		fi := rng.IntN(len(factions))
		mi := rng.IntN(len(mats))

		combos = append(combos, newCombination(factions[fi], mats[mi]))

		factions = append(factions[:fi], factions[fi+1:]...)
		mats = append(mats[:mi], mats[mi+1:]...)
	}
	return combos
}

func (r Rules) anyBanned(combos []Combination) bool {
	for _, c := range combos {
		if r.IsBanned(c.Faction, c.Mat) {
			return true
		}
	}
	return false
}

func (r Rules) contestedCount(combos []Combination) int {
	k := 0
	for _, c := range combos {
		if r.isContested(c.Mat) {
			k++
		}
	}
	return k
}
