package proposal_test

import (
	"context"
	"testing"

	"github.com/mauv0809/riichi-ledger/internal/club"
	"github.com/mauv0809/riichi-ledger/internal/database"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
	"github.com/mauv0809/riichi-ledger/internal/metrics"
	"github.com/mauv0809/riichi-ledger/internal/notifier"
	"github.com/mauv0809/riichi-ledger/internal/pairing"
	"github.com/mauv0809/riichi-ledger/internal/proposal"
	"github.com/mauv0809/riichi-ledger/internal/pubsub"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type harness struct {
	svc      proposal.Service
	store    ledger.Store
	notifier *notifier.Mock
	events   *pubsub.MockPubSubClient
	metrics  *metrics.Mock
}

var (
	players = []string{"a", "b", "c", "d"}
	scores  = map[string]int{"a": 42300, "b": 31200, "c": 17800, "d": 8700}
)

// setupHarness seeds club1 with members a-e, the admin boss, and these
// competitions: champ (active championship), draft (draft championship),
// tourney (one-round tournament with round 1 active) and quick (tournament
// without validation, round 1 active).
func setupHarness(t *testing.T) *harness {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	store := ledger.New(db)
	ctx := context.Background()
	one := 1
	err = store.RunInTx(ctx, func(tx ledger.Tx) error {
		if err := tx.PutClub(ctx, &ledger.Club{ID: "club1", Name: "Riichi Club"}); err != nil {
			return err
		}
		for _, id := range []string{"a", "b", "c", "d", "e", "boss", "z"} {
			if err := tx.PutUser(ctx, &ledger.User{ID: id, DisplayName: "Player " + id, Email: id + "@example.com"}); err != nil {
				return err
			}
		}
		for _, id := range []string{"a", "b", "c", "d", "e"} {
			if err := tx.PutMember(ctx, &ledger.Member{ClubID: "club1", UserID: id, Role: ledger.RoleMember, DisplayName: "Player " + id}); err != nil {
				return err
			}
		}
		if err := tx.PutMember(ctx, &ledger.Member{ClubID: "club1", UserID: "boss", Role: ledger.RoleAdmin, DisplayName: "Boss"}); err != nil {
			return err
		}

		competitions := []*ledger.Competition{
			{ID: "champ", Name: "Season", Type: ledger.CompetitionChampionship, Status: ledger.CompetitionActive, ValidationEnabled: true},
			{ID: "draft", Name: "Next season", Type: ledger.CompetitionChampionship, Status: ledger.CompetitionDraft, ValidationEnabled: true},
			{
				ID: "tourney", Name: "Cup", Type: ledger.CompetitionTournament, Status: ledger.CompetitionActive,
				ValidationEnabled: true, ParticipantIDs: players, TotalRounds: 1,
				PairingAlgorithm: pairing.PerformanceSwiss, TournamentState: ledger.TournamentState{ActiveRoundNumber: &one},
			},
			{
				ID: "quick", Name: "Blitz", Type: ledger.CompetitionTournament, Status: ledger.CompetitionActive,
				ValidationEnabled: false, ParticipantIDs: players, TotalRounds: 2,
				PairingAlgorithm: pairing.PerformanceSwiss, TournamentState: ledger.TournamentState{ActiveRoundNumber: &one},
			},
		}
		for _, c := range competitions {
			c.ClubID = "club1"
			if err := tx.PutCompetition(ctx, c); err != nil {
				return err
			}
		}
		for _, compID := range []string{"tourney", "quick"} {
			round := ledger.NewRound("club1", compID, 1, ledger.RoundActive, []pairing.Table{{TableIndex: 0, PlayerIDs: players}})
			if err := tx.CreateRound(ctx, round); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	h := &harness{
		store:    store,
		notifier: notifier.NewMock(),
		events:   pubsub.NewMock(),
		metrics:  metrics.NewMock(),
	}
	h.svc = proposal.New(store, club.New(store), h.notifier, h.events, h.metrics, noop.NewTracerProvider().Tracer("test"))
	return h
}

func copyScores(src map[string]int) map[string]int {
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// createChampionshipGame submits the standard game to champ as a.
func (h *harness) createChampionshipGame(t *testing.T) *proposal.SubmitResult {
	t.Helper()
	res, err := h.svc.SubmitCreate(context.Background(), "a", proposal.CreateInput{
		ClubID:         "club1",
		Participants:   players,
		FinalScores:    copyScores(scores),
		CompetitionIDs: []string{"champ"},
	})
	require.NoError(t, err)
	return res
}

func (h *harness) approveAll(t *testing.T, proposalID string, voters ...string) *proposal.DecisionResult {
	t.Helper()
	var res *proposal.DecisionResult
	for _, v := range voters {
		var err error
		res, err = h.svc.Approve(context.Background(), v, proposalID)
		require.NoError(t, err, "approve by %s", v)
	}
	return res
}
