package pairing

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
)

// Algorithm is the pairing strategy a tournament uses for its whole lifetime.
type Algorithm string

const (
	PerformanceSwiss      Algorithm = "performance_swiss"
	PrecomputedMinRepeats Algorithm = "precomputed_min_repeats"
)

// TableSize is the number of seats at a table.
const TableSize = 4

var (
	ErrPlayerCount      = errors.New("tournament participant count must be a positive multiple of 4")
	ErrRounds           = errors.New("tournament total rounds must be greater than zero")
	ErrDuplicatePlayers = errors.New("tournament participants must be unique")
	ErrUnknownAlgorithm = errors.New("unsupported pairing algorithm")
)

// ParseAlgorithm validates an algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(name); a {
	case PerformanceSwiss, PrecomputedMinRepeats:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Table is one table of a round.
type Table struct {
	TableIndex int      `json:"tableIndex"`
	PlayerIDs  []string `json:"playerIds"`
}

// PairKey is the order-independent key of two players.
func PairKey(a, b string) string {
	if a < b {
		return a + "__" + b
	}
	return b + "__" + a
}

// Encounters counts how often each pair of players shared a table.
type Encounters map[string]int

func (e Encounters) Get(a, b string) int {
	return e[PairKey(a, b)]
}

func (e Encounters) AddTable(players []string) {
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			e[PairKey(players[i], players[j])]++
		}
	}
}

func (e Encounters) AddRound(tables []Table) {
	for _, t := range tables {
		e.AddTable(t.PlayerIDs)
	}
}

// BuildEncounters collects encounter counts from previous rounds.
func BuildEncounters(rounds [][]Table) Encounters {
	e := Encounters{}
	for _, r := range rounds {
		e.AddRound(r)
	}
	return e
}

// Score summarizes an encounter histogram as (max pair count, total
// encounters beyond the first, sum of squared counts). Lower is better,
// compared in that order.
type Score [3]int

func (e Encounters) Score() Score {
	var s Score
	for _, count := range e {
		if count > s[0] {
			s[0] = count
		}
		if count > 1 {
			s[1] += count - 1
		}
		s[2] += count * count
	}
	return s
}

// Less reports whether s is strictly better than other.
func (s Score) Less(other Score) bool {
	for i := range s {
		if s[i] != other[i] {
			return s[i] < other[i]
		}
	}
	return false
}

func validatePlayers(players []string) error {
	if len(players) < TableSize || len(players)%TableSize != 0 {
		return ErrPlayerCount
	}
	seen := make(map[string]struct{}, len(players))
	for _, p := range players {
		if _, ok := seen[p]; ok {
			return ErrDuplicatePlayers
		}
		seen[p] = struct{}{}
	}
	return nil
}

func sortedCopy(players []string) []string {
	out := append([]string(nil), players...)
	sort.Strings(out)
	return out
}

// rng is a 32-bit linear congruential generator. The same seed always
// yields the same sequence.
type rng struct {
	state uint32
}

func newRNG(seed uint32) *rng {
	return &rng{state: seed}
}

// Float returns a value in [0, 1).
func (r *rng) Float() float64 {
	r.state = 1664525*r.state + 1013904223
	return float64(r.state) / (1 << 32)
}

func (r *rng) shuffle(items []string) []string {
	out := append([]string(nil), items...)
	for i := len(out) - 1; i > 0; i-- {
		j := int(r.Float() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Seed hashes s with 32-bit FNV-1a.
func Seed(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
