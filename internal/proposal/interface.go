package proposal

import "context"

// Service drives game proposals from submission to a committed version.
// callerID is the authenticated user making the call.
type Service interface {
	SubmitCreate(ctx context.Context, callerID string, in CreateInput) (*SubmitResult, error)
	SubmitEdit(ctx context.Context, callerID string, in EditInput) (*SubmitResult, error)
	// SubmitTableResult records the result of a tournament table. A table
	// already awaiting validation has its pending proposal replaced in place.
	SubmitTableResult(ctx context.Context, callerID string, in TableResultInput) (*SubmitResult, error)
	Approve(ctx context.Context, callerID, proposalID string) (*DecisionResult, error)
	Reject(ctx context.Context, callerID, proposalID, reason string) (*DecisionResult, error)
	// Commit makes a unanimously approved proposal the game's active
	// version. Committing a decided proposal returns its current state.
	Commit(ctx context.Context, proposalID string) (*DecisionResult, error)
}
