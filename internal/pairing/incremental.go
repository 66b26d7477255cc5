package pairing

import (
	"math"
	"sort"
)

const (
	repeatWeight     = 100
	rankSpreadWeight = 1
)

// IncrementalInput is everything needed to pair a single round.
type IncrementalInput struct {
	PlayerIDs  []string
	Standings  map[string]float64
	Encounters Encounters
	// Seed drives the order in which tables are seeded.
	Seed uint32
}

// Incremental pairs one round. Players are ranked by standings (missing
// players count as zero, ties by id). Tables are seeded in a shuffled order;
// each remaining seat goes to the unplaced player with the lowest
// 100*(prior encounters with the seated players) + (sum of rank distances).
func Incremental(in IncrementalInput) ([]Table, error) {
	if err := validatePlayers(in.PlayerIDs); err != nil {
		return nil, err
	}
	encounters := in.Encounters
	if encounters == nil {
		encounters = Encounters{}
	}

	ranked := append([]string(nil), in.PlayerIDs...)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := in.Standings[ranked[i]], in.Standings[ranked[j]]
		if pi != pj {
			return pi > pj
		}
		return ranked[i] < ranked[j]
	})
	rank := make(map[string]int, len(ranked))
	for i, id := range ranked {
		rank[id] = i
	}

	available := newRNG(in.Seed).shuffle(ranked)
	tables := make([]Table, 0, len(ranked)/TableSize)

	for len(available) > 0 {
		seated := []string{available[0]}
		available = available[1:]

		for len(seated) < TableSize {
			best, bestScore := 0, math.MaxInt
			for i, candidate := range available {
				repeats, spread := 0, 0
				for _, p := range seated {
					repeats += encounters.Get(candidate, p)
					spread += abs(rank[candidate] - rank[p])
				}
				score := repeats*repeatWeight + spread*rankSpreadWeight
				if score < bestScore {
					best, bestScore = i, score
				}
			}
			seated = append(seated, available[best])
			available = append(available[:best], available[best+1:]...)
		}

		tables = append(tables, Table{TableIndex: len(tables), PlayerIDs: seated})
	}
	return tables, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
