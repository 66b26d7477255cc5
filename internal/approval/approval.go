package approval

import (
	"strings"

	"github.com/mauv0809/riichi-ledger/internal/apperr"
)

// NormalizeUserID trims id and reduces path-like references such as
// "users/abc" to the bare id. It returns "" for ids that are empty.
func NormalizeUserID(id string) string {
	trimmed := strings.TrimSpace(id)
	if !strings.Contains(trimmed, "/") {
		return trimmed
	}
	parts := strings.Split(trimmed, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return ""
}

func uniqueUserIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		n := NormalizeUserID(id)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func newRecord(required []string, approvals map[string]Status) Record {
	r := Record{
		RequiredUserIDs: required,
		UserApprovals:   approvals,
		ApprovedBy:      []string{},
		RejectedBy:      []string{},
	}
	for _, id := range required {
		switch approvals[id] {
		case StatusApproved:
			r.ApprovedBy = append(r.ApprovedBy, id)
		case StatusRejected:
			r.RejectedBy = append(r.RejectedBy, id)
		}
	}
	return r
}

func withStatus(required []string, status Status) Record {
	ids := uniqueUserIDs(required)
	approvals := make(map[string]Status, len(ids))
	for _, id := range ids {
		approvals[id] = status
	}
	return newRecord(ids, approvals)
}

// CreatePending returns a record with every required voter pending.
func CreatePending(required []string) Record {
	return withStatus(required, StatusPending)
}

// CreateApproved returns a record where every required voter has already
// approved. Used by competitions that skip validation.
func CreateApproved(required []string) Record {
	return withStatus(required, StatusApproved)
}

// Raw converts a canonical record back to its stored form.
func (r Record) Raw() RawRecord {
	approvals := make(map[string]RawStatus, len(r.UserApprovals))
	for id, st := range r.UserApprovals {
		approvals[id] = RawStatus(st)
	}
	return RawRecord{
		RequiredUserIDs: r.RequiredUserIDs,
		UserApprovals:   approvals,
		ApprovedBy:      r.ApprovedBy,
		RejectedBy:      r.RejectedBy,
	}
}

// Resolve normalizes a stored record. For each required voter the per-voter
// map wins, then the rejectedBy list, then approvedBy; anyone else is pending.
// Statuses for ids outside the required set are dropped.
func Resolve(raw RawRecord) View {
	required := uniqueUserIDs(raw.RequiredUserIDs)

	mapped := make(map[string]Status, len(raw.UserApprovals))
	for id, st := range raw.UserApprovals {
		n := NormalizeUserID(id)
		if n == "" || st == "" {
			continue
		}
		mapped[n] = Status(st)
	}
	rejected := toSet(uniqueUserIDs(raw.RejectedBy))
	approved := toSet(uniqueUserIDs(raw.ApprovedBy))

	approvals := make(map[string]Status, len(required))
	pending := []string{}
	for _, id := range required {
		st, ok := mapped[id]
		switch {
		case ok:
		case rejected[id]:
			st = StatusRejected
		case approved[id]:
			st = StatusApproved
		default:
			st = StatusPending
		}
		approvals[id] = st
		if st == StatusPending {
			pending = append(pending, id)
		}
	}

	record := newRecord(required, approvals)
	return View{
		Record:           record,
		PendingUserIDs:   pending,
		UnanimityReached: len(required) > 0 && len(record.RejectedBy) == 0 && len(pending) == 0,
		HasRejection:     len(record.RejectedBy) > 0,
	}
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// ApplyDecision records voterID's decision and returns the resolved result.
// Repeating a decision is a no-op; reversing one is refused.
func ApplyDecision(current Record, voterID string, decision Decision) (View, error) {
	id := NormalizeUserID(voterID)
	view := Resolve(current.Raw())
	if id == "" {
		return View{}, apperr.Denied("You are not allowed to validate this proposal.")
	}
	if _, ok := view.UserApprovals[id]; !ok {
		return View{}, apperr.Denied("You are not allowed to validate this proposal.")
	}

	next := StatusApproved
	switch decision {
	case Approve:
		if view.UserApprovals[id] == StatusRejected {
			return View{}, apperr.Precondition("You already rejected this proposal.")
		}
	case Reject:
		if view.UserApprovals[id] == StatusApproved {
			return View{}, apperr.Precondition("You already approved this proposal.")
		}
		next = StatusRejected
	default:
		return View{}, apperr.Invalid("Unknown decision %q.", decision)
	}

	approvals := make(map[string]Status, len(view.UserApprovals))
	for k, v := range view.UserApprovals {
		approvals[k] = v
	}
	approvals[id] = next
	return Resolve(newRecord(view.RequiredUserIDs, approvals).Raw()), nil
}
