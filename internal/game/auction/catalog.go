package auction

import "fmt"

// Faction 派系，目录顺序即棋盘上的顺时针位置
type Faction string

const (
	Nordic  Faction = "Nordic"
	Rusviet Faction = "Rusviet"
	Togawa  Faction = "Togawa"
	Crimea  Faction = "Crimea"
	Saxony  Faction = "Saxony"
	Albion  Faction = "Albion"
	Polania Faction = "Polania"
)

// Mat 玩家板，目录顺序即起始优先级（下标越小越先行动）
type Mat string

const (
	Industrial   Mat = "Industrial"
	Engineering  Mat = "Engineering"
	Militant     Mat = "Militant"
	Patriotic    Mat = "Patriotic"
	Innovative   Mat = "Innovative"
	Mechanical   Mat = "Mechanical"
	Agricultural Mat = "Agricultural"
)

// Edition 游戏版本
type Edition string

const (
	EditionBase Edition = "base"
	EditionIFA  Edition = "ifa" // Invaders from Afar 扩展
)

// Catalog 一局拍卖可用的派系与玩家板
type Catalog struct {
	Factions []Faction
	Mats     []Mat
	MinSeats int
	MaxSeats int
}

var (
	baseCatalog = Catalog{
		Factions: []Faction{Nordic, Rusviet, Crimea, Saxony, Polania},
		Mats:     []Mat{Industrial, Engineering, Patriotic, Mechanical, Agricultural},
		MinSeats: 2,
		MaxSeats: 5,
	}

	ifaCatalog = Catalog{
		Factions: []Faction{Nordic, Rusviet, Togawa, Crimea, Saxony, Albion, Polania},
		Mats:     []Mat{Industrial, Engineering, Militant, Patriotic, Innovative, Mechanical, Agricultural},
		MinSeats: 2,
		MaxSeats: 7,
	}
)

// CatalogFor 返回指定版本的目录副本
func CatalogFor(e Edition) (Catalog, error) {
	var c Catalog
	switch e {
	case EditionBase:
		c = baseCatalog
	case EditionIFA, "":
		c = ifaCatalog
	default:
		return Catalog{}, fmt.Errorf("%w: unknown edition %q", ErrConfiguration, e)
	}
	return Catalog{
		Factions: append([]Faction(nil), c.Factions...),
		Mats:     append([]Mat(nil), c.Mats...),
		MinSeats: c.MinSeats,
		MaxSeats: c.MaxSeats,
	}, nil
}

// FactionIndex 返回派系在目录中的下标，不存在返回 -1
func (c Catalog) FactionIndex(f Faction) int {
	for i, x := range c.Factions {
		if x == f {
			return i
		}
	}
	return -1
}

// MatIndex 返回玩家板在目录中的下标，不存在返回 -1
func (c Catalog) MatIndex(m Mat) int {
	for i, x := range c.Mats {
		if x == m {
			return i
		}
	}
	return -1
}

// validate 检查目录本身以及座位数
func (c Catalog) validate(seats int) error {
	if seats < 1 {
		return fmt.Errorf("%w: seat count %d must be positive", ErrConfiguration, seats)
	}
	if seats > len(c.Factions) {
		return fmt.Errorf("%w: %d seats exceed %d factions", ErrConfiguration, seats, len(c.Factions))
	}
	if seats > len(c.Mats) {
		return fmt.Errorf("%w: %d seats exceed %d player mats", ErrConfiguration, seats, len(c.Mats))
	}

	seenF := make(map[Faction]bool, len(c.Factions))
	for _, f := range c.Factions {
		if seenF[f] {
			return fmt.Errorf("%w: duplicate faction %s", ErrConfiguration, f)
		}
		seenF[f] = true
	}
	seenM := make(map[Mat]bool, len(c.Mats))
	for _, m := range c.Mats {
		if seenM[m] {
			return fmt.Errorf("%w: duplicate player mat %s", ErrConfiguration, m)
		}
		seenM[m] = true
	}
	return nil
}
