package scoring

import (
	"math"
	"sort"
)

type seat struct {
	userID string
	score  int
}

// ComputeOutcome ranks the participants and computes their point totals.
// Scores must already have passed ValidateScores.
//
// Tied players share the rank of the first seat they occupy and the average
// uma of all seats they occupy. Oka goes to first place and is split evenly
// between players tied for it.
func ComputeOutcome(participants []string, scores map[string]int, rules RuleSet) Outcome {
	seats := make([]seat, 0, len(participants))
	for _, p := range participants {
		seats = append(seats, seat{userID: p, score: roundScore(scores[p], rules.Rounding)})
	}
	sort.SliceStable(seats, func(i, j int) bool {
		if seats[i].score != seats[j].score {
			return seats[i].score > seats[j].score
		}
		return seats[i].userID < seats[j].userID
	})

	out := Outcome{
		Ranks:       make(map[string]int, len(seats)),
		TotalPoints: make(map[string]float64, len(seats)),
	}

	for start := 0; start < len(seats); {
		end := start + 1
		for end < len(seats) && seats[end].score == seats[start].score {
			end++
		}
		size := end - start

		var umaSum float64
		for pos := start; pos < end; pos++ {
			if pos < len(rules.Uma) {
				umaSum += rules.Uma[pos]
			}
		}
		uma := umaSum / float64(size)

		var okaShare float64
		if start == 0 && rules.Oka != 0 {
			okaShare = rules.Oka / float64(size)
		}

		for _, s := range seats[start:end] {
			raw := float64(s.score-rules.ReturnPoints) / 1000
			out.Ranks[s.userID] = start + 1
			out.TotalPoints[s.userID] = RoundPoints(raw + uma + okaShare)
		}
		start = end
	}
	return out
}

func roundScore(score int, mode Rounding) int {
	if mode == RoundNearest100 {
		return int(math.Floor(float64(score)/100+0.5)) * 100
	}
	return score
}

// RoundPoints rounds a point value to one decimal, halves rounding up.
func RoundPoints(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
