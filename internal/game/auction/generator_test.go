package auction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource 总是返回相同值的随机源
type fixedSource struct {
	f float64
}

func (s fixedSource) IntN(int) int     { return 0 }
func (s fixedSource) Float64() float64 { return s.f }

func TestGenerate_ProducesValidBatches(t *testing.T) {
	t.Parallel()

	rules := DefaultRules()
	for _, edition := range []Edition{EditionBase, EditionIFA} {
		cat, err := CatalogFor(edition)
		require.NoError(t, err)

		for n := 1; n <= cat.MaxSeats; n++ {
			for seed := range uint64(200) {
				combos, err := Generate(cat, n, rules, NewSource(seed))
				require.NoError(t, err)
				require.Len(t, combos, n)

				factions := make(map[Faction]bool)
				mats := make(map[Mat]bool)
				for _, c := range combos {
					assert.False(t, factions[c.Faction], "duplicate faction %s", c.Faction)
					assert.False(t, mats[c.Mat], "duplicate mat %s", c.Mat)
					assert.False(t, rules.IsBanned(c.Faction, c.Mat), "banned pairing %s %s", c.Faction, c.Mat)
					assert.Equal(t, -1, c.CurrentBid)
					assert.Equal(t, NoHolder, c.CurrentHolder)
					factions[c.Faction] = true
					mats[c.Mat] = true
				}
			}
		}
	}
}

func TestGenerate_ConfigurationErrors(t *testing.T) {
	t.Parallel()

	ifa, err := CatalogFor(EditionIFA)
	require.NoError(t, err)
	base, err := CatalogFor(EditionBase)
	require.NoError(t, err)

	tests := []struct {
		name string
		cat  Catalog
		n    int
	}{
		{"zero seats", ifa, 0},
		{"more seats than ifa factions", ifa, 8},
		{"more seats than base factions", base, 6},
		{"more seats than mats", Catalog{Factions: ifa.Factions, Mats: base.Mats}, 6},
		{"duplicate faction", Catalog{Factions: []Faction{Nordic, Nordic}, Mats: base.Mats}, 2},
		{"duplicate mat", Catalog{Factions: base.Factions, Mats: []Mat{Militant, Militant}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			combos, err := Generate(tt.cat, tt.n, DefaultRules(), NewSource(1))
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Nil(t, combos)
		})
	}
}

func TestGenerate_ExhaustedByBannedPairs(t *testing.T) {
	t.Parallel()

	cat := Catalog{Factions: []Faction{Rusviet}, Mats: []Mat{Industrial}}
	rules := DefaultRules()
	rules.MaxAttempts = 50

	_, err := Generate(cat, 1, rules, NewSource(7))
	assert.ErrorIs(t, err, ErrGenerationExhausted)
}

func TestGenerate_ExhaustedByFairnessCorrection(t *testing.T) {
	t.Parallel()

	cat, err := CatalogFor(EditionIFA)
	require.NoError(t, err)

	rules := Rules{
		ContestedMats: cat.Mats,
		RejectWeight:  1,
		MaxAttempts:   5,
	}

	_, err = Generate(cat, 3, rules, fixedSource{f: 0})
	assert.ErrorIs(t, err, ErrGenerationExhausted)

	// 随机值足够大时不会触发修正
	combos, err := Generate(cat, 3, Rules{ContestedMats: cat.Mats, RejectWeight: 0.1, MaxAttempts: 5}, fixedSource{f: 0.99})
	require.NoError(t, err)
	assert.Len(t, combos, 3)
}

func TestGenerate_SameSeedSameBatch(t *testing.T) {
	t.Parallel()

	cat, err := CatalogFor(EditionIFA)
	require.NoError(t, err)

	a, err := Generate(cat, 5, DefaultRules(), NewSource(42))
	require.NoError(t, err)
	b, err := Generate(cat, 5, DefaultRules(), NewSource(42))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerate_MatMarginals(t *testing.T) {
	t.Parallel()

	const (
		runs  = 20000
		seats = 4
	)

	cat, err := CatalogFor(EditionIFA)
	require.NoError(t, err)
	rules := DefaultRules()
	rng := NewSource(2024)

	counts := make(map[Mat]int)
	for range runs {
		combos, err := Generate(cat, seats, rules, rng)
		require.NoError(t, err)
		for _, c := range combos {
			counts[c.Mat]++
		}
	}

	// 修正力度偏大：争议玩家板约 0.50，其余约 0.60，均匀分布应为 4/7
	const (
		contestedFreq   = 0.50
		uncontestedFreq = 0.60
		band            = 0.02
	)
	var uncontested []float64
	for _, m := range cat.Mats {
		freq := float64(counts[m]) / runs
		if rules.isContested(m) {
			assert.InDelta(t, contestedFreq, freq, band, "contested mat %s frequency %.3f", m, freq)
			continue
		}
		assert.InDelta(t, uncontestedFreq, freq, band, "mat %s frequency %.3f", m, freq)
		uncontested = append(uncontested, freq)
	}
	require.Len(t, uncontested, len(cat.Mats)-len(rules.ContestedMats))

	// 不受禁用规则影响的玩家板之间应当几乎相同
	for _, f := range uncontested[1:] {
		assert.InDelta(t, uncontested[0], f, 0.03)
	}

	// 公平修正只会降低争议玩家板的出现率
	for _, m := range rules.ContestedMats {
		assert.Less(t, float64(counts[m])/runs, uncontested[0])
	}
}
