package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/riichi-ledger/internal/club"
	"github.com/mauv0809/riichi-ledger/internal/config"
	"github.com/mauv0809/riichi-ledger/internal/leaderboard"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
	"github.com/mauv0809/riichi-ledger/internal/notifier"
	"github.com/mauv0809/riichi-ledger/internal/proposal"
	"github.com/mauv0809/riichi-ledger/internal/pubsub"
	"github.com/mauv0809/riichi-ledger/internal/tournament"
)

// LedgerReader is the part of the ledger the read endpoints use.
type LedgerReader interface {
	GetUser(ctx context.Context, userID string) (*ledger.User, error)
	GetCompetition(ctx context.Context, clubID, competitionID string) (*ledger.Competition, error)
	ListLeaderboard(ctx context.Context, clubID, competitionID string) ([]leaderboard.Entry, error)
}

type Server struct {
	Store          LedgerReader
	Proposals      proposal.Service
	Tournaments    tournament.Service
	Directory      club.Directory
	Notifier       notifier.Notifier
	PubSub         pubsub.PubSubClient
	MetricsHandler http.Handler
	Cfg            config.Config
	Router         chi.Router
}

type editRequest struct {
	FromVersionID string                 `json:"fromVersionId"`
	Proposed      ledger.ProposedVersion `json:"proposedVersion"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type tableResultRequest struct {
	FinalScores map[string]int `json:"finalScores"`
}

type upsertMemberRequest struct {
	Role string `json:"role"`
}

type leaderboardResponse struct {
	ClubID        string              `json:"clubId"`
	CompetitionID string              `json:"competitionId,omitempty"`
	Scope         leaderboard.Scope   `json:"scope"`
	Entries       []leaderboard.Entry `json:"entries"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// pushEnvelope is the body Pub/Sub push subscriptions deliver.
type pushEnvelope struct {
	Subscription string `json:"subscription"`
	Message      struct {
		Data string `json:"data"`
	} `json:"message"`
}

