package scoring

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mauv0809/riichi-ledger/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var players = []string{"A", "B", "C", "D"}

func TestComputeOutcome(t *testing.T) {
	tests := []struct {
		name       string
		scores     map[string]int
		rules      func(r *RuleSet)
		wantRanks  map[string]int
		wantPoints map[string]float64
	}{
		{
			name:       "distinct scores with default rules",
			scores:     map[string]int{"A": 42300, "B": 31200, "C": 17800, "D": 8700},
			wantRanks:  map[string]int{"A": 1, "B": 2, "C": 3, "D": 4},
			wantPoints: map[string]float64{"A": 32.3, "B": 11.2, "C": -22.2, "D": -41.3},
		},
		{
			name:       "scores are rounded to the nearest hundred",
			scores:     map[string]int{"A": 42350, "B": 31150, "C": 17800, "D": 8700},
			wantRanks:  map[string]int{"A": 1, "B": 2, "C": 3, "D": 4},
			wantPoints: map[string]float64{"A": 32.4, "B": 11.2, "C": -22.2, "D": -41.3},
		},
		{
			name:       "no rounding keeps raw scores",
			scores:     map[string]int{"A": 42340, "B": 31160, "C": 17800, "D": 8700},
			rules:      func(r *RuleSet) { r.Rounding = RoundNone },
			wantRanks:  map[string]int{"A": 1, "B": 2, "C": 3, "D": 4},
			wantPoints: map[string]float64{"A": 32.3, "B": 11.2, "C": -22.2, "D": -41.3},
		},
		{
			name:       "four way tie shares the averaged uma",
			scores:     map[string]int{"A": 25000, "B": 25000, "C": 25000, "D": 25000},
			wantRanks:  map[string]int{"A": 1, "B": 1, "C": 1, "D": 1},
			wantPoints: map[string]float64{"A": -5, "B": -5, "C": -5, "D": -5},
		},
		{
			name:   "tie for first splits uma and oka",
			scores: map[string]int{"A": 35000, "B": 35000, "C": 20000, "D": 10000},
			rules:  func(r *RuleSet) { r.Oka = 20 },
			// 5 + (20+10)/2 + 20/2
			wantRanks:  map[string]int{"A": 1, "B": 1, "C": 3, "D": 4},
			wantPoints: map[string]float64{"A": 30, "B": 30, "C": -20, "D": -40},
		},
		{
			name:       "tie in the middle takes the average of both seats",
			scores:     map[string]int{"A": 40000, "B": 25000, "C": 25000, "D": 10000},
			wantRanks:  map[string]int{"A": 1, "B": 2, "C": 2, "D": 4},
			wantPoints: map[string]float64{"A": 30, "B": -5, "C": -5, "D": -40},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := Defaults()
			if tt.rules != nil {
				tt.rules(&rules)
			}
			got := ComputeOutcome(players, tt.scores, rules)
			if diff := cmp.Diff(tt.wantRanks, got.Ranks); diff != "" {
				t.Errorf("ranks mismatch (-want +got):\n%s", diff)
			}
			for id, want := range tt.wantPoints {
				assert.InDelta(t, want, got.TotalPoints[id], 1e-9, "points for %s", id)
			}
		})
	}
}

func TestComputeOutcome_ZeroSumWhenReturnMatchesStart(t *testing.T) {
	rules := Defaults()
	rules.ReturnPoints = 25000

	cases := []map[string]int{
		{"A": 42300, "B": 31200, "C": 17800, "D": 8700},
		{"A": 25000, "B": 25000, "C": 25000, "D": 25000},
		{"A": 60100, "B": 30000, "C": 10000, "D": -100},
		{"A": 33300, "B": 33300, "C": 33400, "D": 0},
	}
	for _, scores := range cases {
		out := ComputeOutcome(players, scores, rules)
		var sum float64
		for _, p := range out.TotalPoints {
			sum += p
		}
		assert.InDelta(t, 0, sum, 0.2, "scores %v", scores)
	}
}

func TestComputeOutcome_IsDeterministic(t *testing.T) {
	scores := map[string]int{"A": 30000, "B": 30000, "C": 20000, "D": 20000}
	first := ComputeOutcome([]string{"D", "C", "B", "A"}, scores, Defaults())
	second := ComputeOutcome([]string{"A", "B", "C", "D"}, scores, Defaults())
	assert.Equal(t, first, second)
}

func TestRoundPoints(t *testing.T) {
	assert.Equal(t, 0.1, RoundPoints(0.05))
	assert.Equal(t, -0.1, RoundPoints(-0.14))
	assert.Equal(t, -0.2, RoundPoints(-0.16))
	assert.Equal(t, 32.3, RoundPoints(12.3+20))
}

func TestValidateScores(t *testing.T) {
	tests := []struct {
		name    string
		scores  map[string]int
		wantMsg string
	}{
		{"valid", map[string]int{"A": 25000, "B": 25000, "C": 25000, "D": 25000}, ""},
		{"missing participant", map[string]int{"A": 25000, "B": 25000, "C": 50000}, "Scores must match participants exactly."},
		{"unknown participant", map[string]int{"A": 25000, "B": 25000, "C": 25000, "E": 25000}, "Missing score for participant D."},
		{"wrong sum", map[string]int{"A": 25000, "B": 25000, "C": 25000, "D": 24900}, "Score sum must be 100000."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScores(players, tt.scores, 100000)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperr.InvalidArgument, apperr.CodeOf(err))
			assert.Equal(t, tt.wantMsg, apperr.MessageOf(err))
		})
	}
}

func TestResolve(t *testing.T) {
	club := Defaults()
	club.UseRedFives = true
	club.RedFivesCount = &RedFivesCount{Man: 1, Pin: 1, Sou: 1}

	oka := 20.0
	returnPoints := 25000
	tobi := true
	overrides := &Overrides{Oka: &oka, ReturnPoints: &returnPoints, TobiEnd: &tobi}

	t.Run("inherit ignores overrides", func(t *testing.T) {
		assert.Equal(t, club, Resolve(club, ModeInherit, overrides))
	})

	t.Run("override replaces listed fields only", func(t *testing.T) {
		got := Resolve(club, ModeOverride, overrides)
		assert.Equal(t, 20.0, got.Oka)
		assert.Equal(t, 25000, got.ReturnPoints)
		assert.True(t, got.TobiEnd)
		assert.True(t, got.UseRedFives)
		assert.Equal(t, club.Uma, got.Uma)
		assert.Equal(t, club.RedFivesCount, got.RedFivesCount)
		assert.Equal(t, 30000, club.ReturnPoints, "club rules must not be mutated")
	})

	t.Run("override without fields inherits", func(t *testing.T) {
		assert.Equal(t, club, Resolve(club, ModeOverride, nil))
	})
}

func TestRuleSetValidate(t *testing.T) {
	require.NoError(t, Defaults().Validate())

	bad := Defaults()
	bad.Rounding = "nearest_1000"
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.ScoreSum = 0
	assert.Error(t, bad.Validate())
}
