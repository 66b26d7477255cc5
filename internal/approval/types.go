package approval

import (
	"encoding/json"
	"strings"
)

// Status is a single voter's position on a proposal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Decision is what a voter submits.
type Decision string

const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

// Record is the canonical validation state stored on a proposal. ApprovedBy
// and RejectedBy are derived from UserApprovals in RequiredUserIDs order.
type Record struct {
	RequiredUserIDs []string          `json:"requiredUserIds"`
	UserApprovals   map[string]Status `json:"userApprovals"`
	ApprovedBy      []string          `json:"approvedBy"`
	RejectedBy      []string          `json:"rejectedBy"`
}

// View is a resolved Record plus the values derived from it.
type View struct {
	Record
	PendingUserIDs   []string `json:"pendingUserIds"`
	UnanimityReached bool     `json:"unanimityReached"`
	HasRejection     bool     `json:"hasRejection"`
}

// RawRecord accepts every shape a validation record has been stored in:
// the per-voter map, or only the approvedBy/rejectedBy lists.
type RawRecord struct {
	RequiredUserIDs []string             `json:"requiredUserIds"`
	UserApprovals   map[string]RawStatus `json:"userApprovals,omitempty"`
	ApprovedBy      []string             `json:"approvedBy,omitempty"`
	RejectedBy      []string             `json:"rejectedBy,omitempty"`
}

// RawStatus is a stored voter status, either "approved" or {"status": "approved"}.
// Unknown values decode to the empty status and are ignored.
type RawStatus Status

func (s *RawStatus) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = RawStatus(parseStatus(text))
		return nil
	}
	var wrapped struct {
		Status json.RawMessage `json:"status"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil || len(wrapped.Status) == 0 {
		*s = ""
		return nil
	}
	return s.UnmarshalJSON(wrapped.Status)
}

func parseStatus(text string) Status {
	switch st := Status(strings.ToLower(strings.TrimSpace(text))); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st
	}
	return ""
}
