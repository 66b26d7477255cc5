package proposal

import (
	"context"
	"sync"

	"github.com/mauv0809/riichi-ledger/internal/ledger"
)

// Mock is a mock implementation of the Service interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for method calls
	SubmitCreateFunc      func(ctx context.Context, callerID string, in CreateInput) (*SubmitResult, error)
	SubmitEditFunc        func(ctx context.Context, callerID string, in EditInput) (*SubmitResult, error)
	SubmitTableResultFunc func(ctx context.Context, callerID string, in TableResultInput) (*SubmitResult, error)
	ApproveFunc           func(ctx context.Context, callerID, proposalID string) (*DecisionResult, error)
	RejectFunc            func(ctx context.Context, callerID, proposalID, reason string) (*DecisionResult, error)
	CommitFunc            func(ctx context.Context, proposalID string) (*DecisionResult, error)

	// Call records
	SubmitCreateCalls      []CreateInput
	SubmitEditCalls        []EditInput
	SubmitTableResultCalls []TableResultInput
	ApproveCalls           []DecisionCall
	RejectCalls            []DecisionCall
}

// DecisionCall records a vote.
type DecisionCall struct {
	CallerID   string
	ProposalID string
	Reason     string
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitCreateCalls = nil
	m.SubmitEditCalls = nil
	m.SubmitTableResultCalls = nil
	m.ApproveCalls = nil
	m.RejectCalls = nil
}

func (m *Mock) SubmitCreate(ctx context.Context, callerID string, in CreateInput) (*SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitCreateCalls = append(m.SubmitCreateCalls, in)
	if m.SubmitCreateFunc != nil {
		return m.SubmitCreateFunc(ctx, callerID, in)
	}
	return &SubmitResult{GameID: "game-1", ProposalID: "proposal-1", Status: ledger.GamePendingValidation}, nil
}

func (m *Mock) SubmitEdit(ctx context.Context, callerID string, in EditInput) (*SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitEditCalls = append(m.SubmitEditCalls, in)
	if m.SubmitEditFunc != nil {
		return m.SubmitEditFunc(ctx, callerID, in)
	}
	return &SubmitResult{GameID: in.GameID, ProposalID: "proposal-1", Status: ledger.GamePendingValidation}, nil
}

func (m *Mock) SubmitTableResult(ctx context.Context, callerID string, in TableResultInput) (*SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitTableResultCalls = append(m.SubmitTableResultCalls, in)
	if m.SubmitTableResultFunc != nil {
		return m.SubmitTableResultFunc(ctx, callerID, in)
	}
	return &SubmitResult{GameID: "game-1", ProposalID: "proposal-1", Status: ledger.GamePendingValidation}, nil
}

func (m *Mock) Approve(ctx context.Context, callerID, proposalID string) (*DecisionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApproveCalls = append(m.ApproveCalls, DecisionCall{CallerID: callerID, ProposalID: proposalID})
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, callerID, proposalID)
	}
	return &DecisionResult{ProposalStatus: ledger.ProposalPending, GameStatus: ledger.GamePendingValidation}, nil
}

func (m *Mock) Reject(ctx context.Context, callerID, proposalID, reason string) (*DecisionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RejectCalls = append(m.RejectCalls, DecisionCall{CallerID: callerID, ProposalID: proposalID, Reason: reason})
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, callerID, proposalID, reason)
	}
	return &DecisionResult{ProposalStatus: ledger.ProposalRejected, GameStatus: ledger.GameDisputed}, nil
}

func (m *Mock) Commit(ctx context.Context, proposalID string) (*DecisionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx, proposalID)
	}
	return &DecisionResult{ProposalStatus: ledger.ProposalAccepted, GameStatus: ledger.GameValidated}, nil
}
