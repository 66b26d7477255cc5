package ledger

import (
	"context"
	"errors"

	"github.com/mauv0809/riichi-ledger/internal/approval"
	"github.com/mauv0809/riichi-ledger/internal/leaderboard"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Reader is the read side of the ledger. Lookups of a missing document
// return an error wrapping ErrNotFound.
type Reader interface {
	GetClub(ctx context.Context, clubID string) (*Club, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	GetMember(ctx context.Context, clubID, userID string) (*Member, error)
	ListMembers(ctx context.Context, clubID string) ([]Member, error)
	GetCompetition(ctx context.Context, clubID, competitionID string) (*Competition, error)
	GetGame(ctx context.Context, gameID string) (*Game, error)
	GetVersion(ctx context.Context, versionID string) (*Version, error)
	ListVersions(ctx context.Context, gameID string) ([]Version, error)
	GetProposal(ctx context.Context, proposalID string) (*Proposal, error)
	GetValidationRequest(ctx context.Context, requestID string) (*ValidationRequest, error)
	ListValidationRequests(ctx context.Context, userID string, status approval.Status) ([]ValidationRequest, error)
	GetRound(ctx context.Context, roundID string) (*Round, error)
	ListRounds(ctx context.Context, competitionID string) ([]Round, error)
	ListLeaderboard(ctx context.Context, clubID, competitionID string) ([]leaderboard.Entry, error)
}

// Tx is a unit of work. Everything written through a Tx becomes visible
// together when the surrounding RunInTx returns nil, or not at all.
type Tx interface {
	Reader
	PutClub(ctx context.Context, club *Club) error
	PutUser(ctx context.Context, user *User) error
	PutMember(ctx context.Context, member *Member) error
	PutCompetition(ctx context.Context, competition *Competition) error
	PutGame(ctx context.Context, game *Game) error
	// CreateVersion inserts an immutable version. Reusing a version id or
	// number fails with ErrAlreadyExists.
	CreateVersion(ctx context.Context, version *Version) error
	PutProposal(ctx context.Context, proposal *Proposal) error
	PutValidationRequest(ctx context.Context, request *ValidationRequest) error
	// CreateRound inserts a round and fails with ErrAlreadyExists if its id
	// is taken.
	CreateRound(ctx context.Context, round *Round) error
	PutRound(ctx context.Context, round *Round) error
	// ApplyDelta adds a delta to its leaderboard entry, creating the entry
	// when it does not exist.
	ApplyDelta(ctx context.Context, delta leaderboard.Delta) error
}

// Store is the persistent ledger.
type Store interface {
	Reader
	// RunInTx runs fn inside a serializable transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
}
