package scoring

import (
	"fmt"

	"github.com/mauv0809/riichi-ledger/internal/apperr"
)

// Defaults returns the rule set used when a club has none configured.
func Defaults() RuleSet {
	return RuleSet{
		StartingPoints: 25000,
		ReturnPoints:   30000,
		Uma:            [4]float64{20, 10, -10, -20},
		Oka:            0,
		ScoreSum:       100000,
		Rounding:       RoundNearest100,
	}
}

// Resolve returns the effective rules of a competition. In override mode the
// listed fields replace the club's, everything else is inherited.
func Resolve(club RuleSet, mode RulesMode, overrides *Overrides) RuleSet {
	if mode != ModeOverride || overrides == nil {
		return club
	}
	return overrides.Apply(club)
}

// Apply copies base and replaces every field set in o.
func (o *Overrides) Apply(base RuleSet) RuleSet {
	out := base
	setInt(&out.StartingPoints, o.StartingPoints)
	setInt(&out.ReturnPoints, o.ReturnPoints)
	if o.Uma != nil {
		out.Uma = *o.Uma
	}
	if o.Oka != nil {
		out.Oka = *o.Oka
	}
	setInt(&out.ScoreSum, o.ScoreSum)
	if o.Rounding != nil {
		out.Rounding = *o.Rounding
	}

	setBool(&out.AllowOpenTanyao, o.AllowOpenTanyao)
	setBool(&out.UseRedFives, o.UseRedFives)
	if o.RedFivesCount != nil {
		counts := *o.RedFivesCount
		out.RedFivesCount = &counts
	}
	setBool(&out.UseIppatsu, o.UseIppatsu)
	setBool(&out.UseUraDora, o.UseUraDora)
	setBool(&out.UseKanDora, o.UseKanDora)
	setBool(&out.UseKanUraDora, o.UseKanUraDora)
	setBool(&out.HeadBump, o.HeadBump)
	setBool(&out.AgariYame, o.AgariYame)
	setBool(&out.TobiEnd, o.TobiEnd)
	setInt(&out.HonbaPoints, o.HonbaPoints)
	setInt(&out.NotenPaymentTotal, o.NotenPaymentTotal)
	setInt(&out.RiichiBetPoints, o.RiichiBetPoints)
	return out
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks the parts of a rule set the scoring transform depends on.
func (r RuleSet) Validate() error {
	switch r.Rounding {
	case RoundNearest100, RoundNone:
	default:
		return fmt.Errorf("unknown rounding mode %q", r.Rounding)
	}
	if r.ScoreSum <= 0 {
		return fmt.Errorf("score sum must be positive, got %d", r.ScoreSum)
	}
	return nil
}

// ValidateScores rejects score maps the scoring transform cannot accept:
// every participant needs exactly one score and the total must equal scoreSum.
func ValidateScores(participants []string, scores map[string]int, scoreSum int) error {
	if len(participants) != len(scores) {
		return apperr.Invalid("Scores must match participants exactly.")
	}
	total := 0
	for _, p := range participants {
		score, ok := scores[p]
		if !ok {
			return apperr.Invalid("Missing score for participant %s.", p)
		}
		total += score
	}
	if total != scoreSum {
		return apperr.Invalid("Score sum must be %d.", scoreSum)
	}
	return nil
}
