package auction

import "math/rand/v2"

const (
	// DefaultRejectWeight 每个争议玩家板带来的额外拒绝概率
	DefaultRejectWeight = 0.1425
	// DefaultMaxAttempts 整批重抽的上限
	DefaultMaxAttempts = 10000
)

// Pairing 一个派系与玩家板的组合（不含拍卖字段）
type Pairing struct {
	Faction Faction
	Mat     Mat
}

// Rules 组合生成规则
type Rules struct {
	BannedPairs   []Pairing // 官方禁止的组合
	ContestedMats []Mat     // 受禁组合影响、需要公平修正的玩家板
	RejectWeight  float64
	MaxAttempts   int
}

// DefaultRules 返回官方禁用规则：Rusviet+Industrial、Crimea+Patriotic
func DefaultRules() Rules {
	return Rules{
		BannedPairs: []Pairing{
			{Faction: Rusviet, Mat: Industrial},
			{Faction: Crimea, Mat: Patriotic},
		},
		ContestedMats: []Mat{Industrial, Patriotic},
		RejectWeight:  DefaultRejectWeight,
		MaxAttempts:   DefaultMaxAttempts,
	}
}

func (r Rules) maxAttempts() int {
	if r.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return r.MaxAttempts
}

// IsBanned 判断组合是否被禁止
func (r Rules) IsBanned(f Faction, m Mat) bool {
	for _, p := range r.BannedPairs {
		if p.Faction == f && p.Mat == m {
			return true
		}
	}
	return false
}

func (r Rules) isContested(m Mat) bool {
	for _, c := range r.ContestedMats {
		if c == m {
			return true
		}
	}
	return false
}

// Source 可注入、可播种的随机源，*rand.Rand 满足该接口
type Source interface {
	IntN(n int) int
	Float64() float64
}

// NewSource 用种子创建确定性随机源，同一种子在所有观察者处得到同样的结果
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
