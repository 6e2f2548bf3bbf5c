// simulate 统计组合生成器在大量抽取下各派系与玩家板的出现频率
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/scythe-bidder/internal/game/auction"
	"github.com/palemoky/scythe-bidder/internal/logger"
)

func main() {
	seed := flag.Uint64("seed", 0, "随机种子，0 表示随机")
	runs := flag.Int("runs", 100000, "抽取批次")
	seats := flag.Int("seats", 5, "座位数")
	edition := flag.String("edition", "ifa", "版本 base | ifa")
	flag.Parse()

	logger.Init("info", true)

	cat, err := auction.CatalogFor(auction.Edition(*edition))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid edition")
	}
	if *seed == 0 {
		*seed = rand.Uint64()
	}

	rules := auction.DefaultRules()
	rng := auction.NewSource(*seed)

	mats := make(map[auction.Mat]int)
	factions := make(map[auction.Faction]int)
	pairs := make(map[auction.Pairing]int)
	for range *runs {
		combos, err := auction.Generate(cat, *seats, rules, rng)
		if err != nil {
			log.Fatal().Err(err).Msg("generate failed")
		}
		for _, c := range combos {
			mats[c.Mat]++
			factions[c.Faction]++
			pairs[auction.Pairing{Faction: c.Faction, Mat: c.Mat}]++
		}
	}

	log.Info().Uint64("seed", *seed).Int("runs", *runs).Int("seats", *seats).Str("edition", *edition).Msg("simulation done")

	total := float64(*runs)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "MAT\tRATE\tCONTESTED")
	for _, m := range cat.Mats {
		contested := ""
		if slices.Contains(rules.ContestedMats, m) {
			contested = "yes"
		}
		fmt.Fprintf(w, "%s\t%.4f\t%s\n", m, float64(mats[m])/total, contested)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "FACTION\tRATE\t")
	for _, f := range cat.Factions {
		fmt.Fprintf(w, "%s\t%.4f\t\n", f, float64(factions[f])/total)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PAIR\tRATE\tBANNED")
	for _, f := range cat.Factions {
		for _, m := range cat.Mats {
			banned := ""
			if rules.IsBanned(f, m) {
				banned = "yes"
			}
			fmt.Fprintf(w, "%s %s\t%.4f\t%s\n", f, m, float64(pairs[auction.Pairing{Faction: f, Mat: m}])/total, banned)
		}
	}
	_ = w.Flush()
}
