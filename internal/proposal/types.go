package proposal

import (
	"time"

	"github.com/mauv0809/riichi-ledger/internal/club"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
	"github.com/mauv0809/riichi-ledger/internal/leaderboard"
	"github.com/mauv0809/riichi-ledger/internal/metrics"
	"github.com/mauv0809/riichi-ledger/internal/notifier"
	"github.com/mauv0809/riichi-ledger/internal/pubsub"
	"go.opentelemetry.io/otel/trace"
)

const maxReasonLength = 500

type service struct {
	store     ledger.Store
	directory club.Directory
	notifier  notifier.Notifier
	events    pubsub.PubSubClient
	metrics   metrics.Metrics
	tracer    trace.Tracer
	newID     func() string
}

// TableRef points a submission at a tournament table.
type TableRef struct {
	RoundID    string `json:"roundId"`
	TableIndex int    `json:"tableIndex"`
}

type CreateInput struct {
	ClubID         string         `json:"clubId"`
	Participants   []string       `json:"participants"`
	FinalScores    map[string]int `json:"finalScores"`
	CompetitionIDs []string       `json:"competitionIds"`
	Tournament     *TableRef      `json:"tournamentContext,omitempty"`
}

type EditInput struct {
	GameID        string                 `json:"gameId"`
	FromVersionID string                 `json:"fromVersionId"`
	Proposed      ledger.ProposedVersion `json:"proposedVersion"`
}

type TableResultInput struct {
	ClubID        string         `json:"clubId"`
	CompetitionID string         `json:"competitionId"`
	RoundID       string         `json:"roundId"`
	TableIndex    int            `json:"tableIndex"`
	FinalScores   map[string]int `json:"finalScores"`
}

type SubmitResult struct {
	GameID      string            `json:"gameId"`
	ProposalID  string            `json:"proposalId"`
	Status      ledger.GameStatus `json:"status"`
	Resubmitted bool              `json:"resubmitted,omitempty"`
}

type DecisionResult struct {
	ProposalStatus ledger.ProposalStatus `json:"proposalStatus"`
	GameStatus     ledger.GameStatus     `json:"gameStatus"`
}

// commitOutcome describes what a commit wrote. applied is false when the
// proposal had already been decided.
type commitOutcome struct {
	applied        bool
	proposal       *ledger.Proposal
	game           *ledger.Game
	version        *ledger.Version
	deltas         []leaderboard.Delta
	roundCompleted bool
	archived       bool
	duration       time.Duration
}

func (o *commitOutcome) result() *DecisionResult {
	return &DecisionResult{ProposalStatus: o.proposal.Status, GameStatus: o.game.Status}
}

// pendingNotice is a validation notification to send once the write that
// created the requests has committed.
type pendingNotice struct {
	kind       ledger.RequestKind
	proposalID string
	gameID     string
	userIDs    []string
}
