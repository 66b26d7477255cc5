package tournament

import (
	"github.com/mauv0809/riichi-ledger/internal/club"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
	"github.com/mauv0809/riichi-ledger/internal/metrics"
	"github.com/mauv0809/riichi-ledger/internal/pairing"
	"github.com/mauv0809/riichi-ledger/internal/pubsub"
	"go.opentelemetry.io/otel/trace"
)

type service struct {
	store     ledger.Store
	directory club.Directory
	events    pubsub.PubSubClient
	metrics   metrics.Metrics
	tracer    trace.Tracer
	// attempts is the number of schedules Precompute tries.
	attempts int
}

type CreateRoundInput struct {
	ClubID        string `json:"clubId"`
	CompetitionID string `json:"competitionId"`
}

type CreateRoundResult struct {
	RoundID     string          `json:"roundId"`
	RoundNumber int             `json:"roundNumber"`
	Tables      []pairing.Table `json:"tables"`
}
