package ledger

import (
	"github.com/mauv0809/riichi-ledger/internal/apperr"
)

var gameTransitions = map[GameStatus][]GameStatus{
	GamePendingValidation: {GameValidated, GameDisputed, GameCancelled},
	GameValidated:         {GamePendingValidation, GameCancelled},
	GameDisputed:          {GamePendingValidation, GameCancelled},
}

// CanTransition reports whether a game may move from one status to another.
// Cancelled games never move again.
func CanTransition(from, to GameStatus) bool {
	for _, s := range gameTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionTo moves the game to status, refusing edges the lifecycle does
// not allow.
func (g *Game) TransitionTo(status GameStatus) error {
	if !CanTransition(g.Status, status) {
		return apperr.Precondition("Game %s cannot move from %s to %s.", g.ID, g.Status, status)
	}
	g.Status = status
	return nil
}

// IsTerminal reports whether the proposal has been decided.
func (p *Proposal) IsTerminal() bool {
	return p.Status == ProposalAccepted || p.Status == ProposalRejected
}

// VoterIDs is the union of a and b in first-seen order.
func VoterIDs(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
