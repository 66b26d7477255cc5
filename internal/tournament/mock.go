package tournament

import (
	"context"
	"sync"

	"github.com/mauv0809/riichi-ledger/internal/ledger"
)

// Mock is a mock implementation of the Service interface for testing.
type Mock struct {
	mu sync.Mutex

	CreateRoundFunc func(ctx context.Context, callerID string, in CreateRoundInput) (*CreateRoundResult, error)

	CreateRoundCalls []CreateRoundInput
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateRoundCalls = nil
}

func (m *Mock) CreateRound(ctx context.Context, callerID string, in CreateRoundInput) (*CreateRoundResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateRoundCalls = append(m.CreateRoundCalls, in)
	if m.CreateRoundFunc != nil {
		return m.CreateRoundFunc(ctx, callerID, in)
	}
	return &CreateRoundResult{RoundID: ledger.RoundID(in.CompetitionID, 1), RoundNumber: 1}, nil
}
