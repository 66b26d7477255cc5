package notifier

import (
	"context"
	"sync"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spy for Send
	SendFunc func(ctx context.Context, recipients []Recipient, msg Message) error

	// Call records
	SendCalls []SendCall
}

// SendCall records one call to Send.
type SendCall struct {
	Recipients []Recipient
	Message    Message
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendCalls = nil
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []SendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SendCall(nil), m.SendCalls...)
}

func (m *Mock) Send(ctx context.Context, recipients []Recipient, msg Message) error {
	m.mu.Lock()
	m.SendCalls = append(m.SendCalls, SendCall{Recipients: recipients, Message: msg})
	fn := m.SendFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, recipients, msg)
	}
	return nil
}

// RecipientIDs returns the user ids of recipients in order.
func RecipientIDs(recipients []Recipient) []string {
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		out = append(out, r.UserID)
	}
	return out
}
