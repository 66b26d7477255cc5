package club

import (
	"context"
	"sync"

	"github.com/mauv0809/riichi-ledger/internal/apperr"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
)

// MockDirectory is a mock implementation of the Directory interface for
// testing. Members put in Members are treated as real memberships unless a
// Func overrides the behaviour. It is safe for concurrent use.
type MockDirectory struct {
	mu sync.Mutex

	// Members maps clubID -> userID -> member.
	Members map[string]map[string]ledger.Member

	// Spies for method calls
	MembershipFunc     func(ctx context.Context, clubID, userID string) (*ledger.Member, error)
	MissingMembersFunc func(ctx context.Context, clubID string, userIDs []string) ([]string, error)
	UpsertMemberFunc   func(ctx context.Context, callerID string, in UpsertMemberInput) (*UpsertMemberResult, error)

	// Call records
	MembershipCalls []struct {
		ClubID string
		UserID string
	}
	UpsertMemberCalls []UpsertMemberInput
}

// NewMock creates a new mock instance.
func NewMock() *MockDirectory {
	return &MockDirectory{Members: map[string]map[string]ledger.Member{}}
}

// Add registers a member.
func (m *MockDirectory) Add(clubID, userID string, role ledger.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Members[clubID] == nil {
		m.Members[clubID] = map[string]ledger.Member{}
	}
	m.Members[clubID][userID] = ledger.Member{ClubID: clubID, UserID: userID, Role: role, DisplayName: userID}
}

// Reset clears all call records.
func (m *MockDirectory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MembershipCalls = nil
	m.UpsertMemberCalls = nil
}

func (m *MockDirectory) Membership(ctx context.Context, clubID, userID string) (*ledger.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MembershipCalls = append(m.MembershipCalls, struct {
		ClubID string
		UserID string
	}{clubID, userID})
	if m.MembershipFunc != nil {
		return m.MembershipFunc(ctx, clubID, userID)
	}
	member, ok := m.Members[clubID][userID]
	if !ok {
		return nil, apperr.Denied("You are not a club member.")
	}
	return &member, nil
}

func (m *MockDirectory) MissingMembers(ctx context.Context, clubID string, userIDs []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MissingMembersFunc != nil {
		return m.MissingMembersFunc(ctx, clubID, userIDs)
	}
	var missing []string
	for _, id := range userIDs {
		if _, ok := m.Members[clubID][id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (m *MockDirectory) ListMembers(ctx context.Context, clubID string) ([]ledger.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.Member
	for _, member := range m.Members[clubID] {
		out = append(out, member)
	}
	return out, nil
}

func (m *MockDirectory) UpsertMember(ctx context.Context, callerID string, in UpsertMemberInput) (*UpsertMemberResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertMemberCalls = append(m.UpsertMemberCalls, in)
	if m.UpsertMemberFunc != nil {
		return m.UpsertMemberFunc(ctx, callerID, in)
	}
	return &UpsertMemberResult{OK: true, UserID: in.TargetUserID, Role: ledger.Role(in.Role)}, nil
}
