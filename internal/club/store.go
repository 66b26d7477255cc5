package club

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/riichi-ledger/internal/apperr"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
)

// New creates a new Directory.
func New(store ledger.Store) Directory {
	return &directory{store: store}
}

func (d *directory) Membership(ctx context.Context, clubID, userID string) (*ledger.Member, error) {
	m, err := d.store.GetMember(ctx, clubID, userID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, apperr.Denied("You are not a club member.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	return m, nil
}

func (d *directory) MissingMembers(ctx context.Context, clubID string, userIDs []string) ([]string, error) {
	var missing []string
	for _, id := range userIDs {
		_, err := d.store.GetMember(ctx, clubID, id)
		if errors.Is(err, ledger.ErrNotFound) {
			missing = append(missing, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load membership of %s: %w", id, err)
		}
	}
	return missing, nil
}

func (d *directory) ListMembers(ctx context.Context, clubID string) ([]ledger.Member, error) {
	return d.store.ListMembers(ctx, clubID)
}

// UpsertMember lets a club admin add a user to the club or change their
// role. The member's display name is cached from the user profile.
func (d *directory) UpsertMember(ctx context.Context, callerID string, in UpsertMemberInput) (*UpsertMemberResult, error) {
	if strings.TrimSpace(in.ClubID) == "" || strings.TrimSpace(in.TargetUserID) == "" {
		return nil, apperr.Invalid("clubId and targetUserId are required.")
	}
	role, ok := ledger.ParseRole(in.Role)
	if !ok {
		return nil, apperr.Invalid("role: must be one of admin, member")
	}

	caller, err := d.store.GetMember(ctx, in.ClubID, callerID)
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		return nil, fmt.Errorf("failed to load caller membership: %w", err)
	}
	if caller == nil || !caller.IsAdmin() {
		return nil, apperr.Denied("Only admin can manage club members.")
	}

	target, err := d.store.GetUser(ctx, in.TargetUserID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, apperr.Missing("Target user not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load target user: %w", err)
	}

	err = d.store.RunInTx(ctx, func(tx ledger.Tx) error {
		member, err := tx.GetMember(ctx, in.ClubID, in.TargetUserID)
		if errors.Is(err, ledger.ErrNotFound) {
			member = &ledger.Member{ClubID: in.ClubID, UserID: in.TargetUserID}
		} else if err != nil {
			return err
		}
		member.Role = role
		member.DisplayName = displayName(target)
		return tx.PutMember(ctx, member)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert member: %w", err)
	}

	log.Info("Club member upserted", "clubID", in.ClubID, "userID", in.TargetUserID, "role", role, "by", callerID)
	return &UpsertMemberResult{OK: true, UserID: in.TargetUserID, Role: role}, nil
}

// displayName prefers the profile name, then the email, then the id.
func displayName(u *ledger.User) string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}
