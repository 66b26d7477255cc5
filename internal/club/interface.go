package club

import (
	"context"

	"github.com/mauv0809/riichi-ledger/internal/ledger"
)

// Directory answers who belongs to a club and in which role.
type Directory interface {
	// Membership returns the caller's membership, or PermissionDenied when
	// the caller is not a member of the club.
	Membership(ctx context.Context, clubID, userID string) (*ledger.Member, error)
	// MissingMembers returns the ids in userIDs that are not club members.
	MissingMembers(ctx context.Context, clubID string, userIDs []string) ([]string, error)
	ListMembers(ctx context.Context, clubID string) ([]ledger.Member, error)
	UpsertMember(ctx context.Context, callerID string, in UpsertMemberInput) (*UpsertMemberResult, error)
}
