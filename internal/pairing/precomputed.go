package pairing

import (
	"fmt"
	"math"
	"strings"
)

// DefaultAttempts is the number of randomized schedules tried by Precompute.
const DefaultAttempts = 120

// PrecomputeInput describes a full tournament schedule.
type PrecomputeInput struct {
	PlayerIDs []string
	Rounds    int
	Attempts  int
}

// Precompute builds every round of a tournament up front. It runs several
// seeded attempts and keeps the schedule whose encounter histogram has the
// best Score. The seeds depend only on the sorted player ids and the round
// count, so the same input always produces the same schedule.
func Precompute(in PrecomputeInput) ([][]Table, error) {
	if err := validatePlayers(in.PlayerIDs); err != nil {
		return nil, err
	}
	if in.Rounds <= 0 {
		return nil, ErrRounds
	}
	attempts := in.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	players := sortedCopy(in.PlayerIDs)
	base := Seed(fmt.Sprintf("%s::%d", strings.Join(players, "|"), in.Rounds))

	var best [][]Table
	var bestScore Score
	for attempt := 0; attempt < attempts; attempt++ {
		r := newRNG(base + uint32(attempt)*7919)
		encounters := Encounters{}
		schedule := make([][]Table, 0, in.Rounds)
		for round := 0; round < in.Rounds; round++ {
			tables := minRepeatRound(players, encounters, r)
			encounters.AddRound(tables)
			schedule = append(schedule, tables)
		}
		if score := encounters.Score(); best == nil || score.Less(bestScore) {
			best, bestScore = schedule, score
		}
	}
	return best, nil
}

// minRepeatRound fills tables from a shuffled pool, giving each seat to the
// candidate whose worst and total encounter counts with the seated players
// are lowest. A tiny random term breaks ties.
func minRepeatRound(players []string, encounters Encounters, r *rng) []Table {
	available := r.shuffle(players)
	tables := make([]Table, 0, len(players)/TableSize)

	for len(available) > 0 {
		seated := []string{available[0]}
		available = available[1:]

		for len(seated) < TableSize {
			best, bestScore := 0, math.Inf(1)
			for i, candidate := range available {
				total, worst := 0, 0
				for _, p := range seated {
					c := encounters.Get(candidate, p)
					total += c
					worst = max(worst, c)
				}
				score := float64(worst)*1000 + float64(total)*100 + r.Float()*0.001
				if score < bestScore {
					best, bestScore = i, score
				}
			}
			seated = append(seated, available[best])
			available = append(available[:best], available[best+1:]...)
		}

		tables = append(tables, Table{TableIndex: len(tables), PlayerIDs: seated})
	}
	return tables
}
