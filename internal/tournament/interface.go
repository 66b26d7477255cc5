package tournament

import "context"

// Service creates tournament rounds. callerID is the authenticated user
// making the call and must be an admin of the club.
type Service interface {
	// CreateRound activates the competition's next round. Precomputed
	// tournaments write their whole schedule on the first call and promote
	// the next scheduled round afterwards.
	CreateRound(ctx context.Context, callerID string, in CreateRoundInput) (*CreateRoundResult, error)
}
