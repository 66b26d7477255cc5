package leaderboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/mauv0809/riichi-ledger/internal/scoring"
)

// Scope says which leaderboard a delta or entry belongs to.
type Scope string

const (
	ScopeCompetition Scope = "competition"
	ScopeGlobal      Scope = "global"
)

// Version is the part of a game version that feeds the leaderboards.
type Version struct {
	ClubID         string
	Participants   []string
	CompetitionIDs []string
	Computed       scoring.Outcome
}

// Delta is a signed adjustment to one leaderboard entry.
type Delta struct {
	Scope            Scope   `json:"scope"`
	ClubID           string  `json:"clubId"`
	CompetitionID    string  `json:"competitionId,omitempty"`
	UserID           string  `json:"userId"`
	TotalPointsDelta float64 `json:"totalPointsDelta"`
	GamesPlayedDelta int     `json:"gamesPlayedDelta"`
}

// EntryID is the id of the leaderboard entry the delta applies to.
func (d Delta) EntryID() string {
	if d.Scope == ScopeGlobal {
		return GlobalEntryID(d.ClubID, d.UserID)
	}
	return CompetitionEntryID(d.ClubID, d.CompetitionID, d.UserID)
}

// Entry is a cumulative leaderboard row.
type Entry struct {
	ID            string    `json:"id"`
	ClubID        string    `json:"clubId"`
	CompetitionID string    `json:"competitionId,omitempty"`
	UserID        string    `json:"userId"`
	DisplayName   string    `json:"displayName,omitempty"`
	TotalPoints   float64   `json:"totalPoints"`
	GamesPlayed   int       `json:"gamesPlayed"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func CompetitionEntryID(clubID, competitionID, userID string) string {
	return fmt.Sprintf("%s_%s_%s", clubID, competitionID, userID)
}

func GlobalEntryID(clubID, userID string) string {
	return fmt.Sprintf("%s_%s", clubID, userID)
}

type scopeKey struct {
	scope         Scope
	competitionID string
}

func scopesOf(competitionIDs []string) []scopeKey {
	if len(competitionIDs) == 0 {
		return []scopeKey{{scope: ScopeGlobal}}
	}
	out := make([]scopeKey, 0, len(competitionIDs))
	for _, id := range competitionIDs {
		out = append(out, scopeKey{scope: ScopeCompetition, competitionID: id})
	}
	return out
}

type accumulator struct {
	order  []string
	deltas map[string]*Delta
}

func (a *accumulator) add(v Version, sign int) {
	for _, participant := range v.Participants {
		points := v.Computed.TotalPoints[participant]
		for _, s := range scopesOf(v.CompetitionIDs) {
			key := fmt.Sprintf("%s:%s:%s", s.scope, s.competitionID, participant)
			d, ok := a.deltas[key]
			if !ok {
				d = &Delta{
					Scope:         s.scope,
					ClubID:        v.ClubID,
					CompetitionID: s.competitionID,
					UserID:        participant,
				}
				a.deltas[key] = d
				a.order = append(a.order, key)
			}
			d.TotalPointsDelta += points * float64(sign)
			d.GamesPlayedDelta += sign
		}
	}
}

// ComputeDelta returns the leaderboard changes needed to replace prev with
// next. prev is nil the first time a game is validated. Entries that net to
// zero are dropped.
func ComputeDelta(prev *Version, next Version) []Delta {
	acc := &accumulator{deltas: make(map[string]*Delta)}
	if prev != nil {
		acc.add(*prev, -1)
	}
	acc.add(next, 1)

	out := make([]Delta, 0, len(acc.order))
	for _, key := range acc.order {
		d := *acc.deltas[key]
		d.TotalPointsDelta = scoring.RoundPoints(d.TotalPointsDelta)
		if d.TotalPointsDelta == 0 && d.GamesPlayedDelta == 0 {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Invert flips the sign of every delta.
func Invert(deltas []Delta) []Delta {
	out := make([]Delta, len(deltas))
	for i, d := range deltas {
		d.TotalPointsDelta = -d.TotalPointsDelta
		d.GamesPlayedDelta = -d.GamesPlayedDelta
		out[i] = d
	}
	return out
}

// Sort orders entries by total points, then games played, then user id.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		if entries[i].GamesPlayed != entries[j].GamesPlayed {
			return entries[i].GamesPlayed > entries[j].GamesPlayed
		}
		return entries[i].UserID < entries[j].UserID
	})
}

// Standings maps user id to total points.
func Standings(entries []Entry) map[string]float64 {
	out := make(map[string]float64, len(entries))
	for _, e := range entries {
		out[e.UserID] = e.TotalPoints
	}
	return out
}
