package club

import (
	"github.com/mauv0809/riichi-ledger/internal/ledger"
)

// directory implements Directory on top of the ledger.
type directory struct {
	store ledger.Store
}

// UpsertMemberInput adds a user to a club or changes their role.
type UpsertMemberInput struct {
	ClubID       string `json:"clubId"`
	TargetUserID string `json:"targetUserId"`
	Role         string `json:"role"`
}

type UpsertMemberResult struct {
	OK     bool        `json:"ok"`
	UserID string      `json:"userId"`
	Role   ledger.Role `json:"role"`
}
