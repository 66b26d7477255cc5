package tournament_test

import (
	"context"
	"testing"

	"github.com/mauv0809/riichi-ledger/internal/apperr"
	"github.com/mauv0809/riichi-ledger/internal/club"
	"github.com/mauv0809/riichi-ledger/internal/database"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
	"github.com/mauv0809/riichi-ledger/internal/leaderboard"
	"github.com/mauv0809/riichi-ledger/internal/metrics"
	"github.com/mauv0809/riichi-ledger/internal/pairing"
	"github.com/mauv0809/riichi-ledger/internal/pubsub"
	"github.com/mauv0809/riichi-ledger/internal/tournament"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

var eight = []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}

type harness struct {
	svc     tournament.Service
	store   ledger.Store
	events  *pubsub.MockPubSubClient
	metrics *metrics.Mock
}

// setupHarness seeds club1 with the admin boss, the member p1 and players
// p1-p8. Each competition passed in is stored under club1.
func setupHarness(t *testing.T, competitions ...*ledger.Competition) *harness {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	store := ledger.New(db)
	ctx := context.Background()
	err = store.RunInTx(ctx, func(tx ledger.Tx) error {
		if err := tx.PutClub(ctx, &ledger.Club{ID: "club1", Name: "Riichi Club"}); err != nil {
			return err
		}
		for _, id := range append([]string{"boss", "outsider"}, eight...) {
			if err := tx.PutUser(ctx, &ledger.User{ID: id, DisplayName: id}); err != nil {
				return err
			}
		}
		for _, id := range eight {
			if err := tx.PutMember(ctx, &ledger.Member{ClubID: "club1", UserID: id, Role: ledger.RoleMember, DisplayName: id}); err != nil {
				return err
			}
		}
		if err := tx.PutMember(ctx, &ledger.Member{ClubID: "club1", UserID: "boss", Role: ledger.RoleAdmin, DisplayName: "Boss"}); err != nil {
			return err
		}
		for _, c := range competitions {
			c.ClubID = "club1"
			if err := tx.PutCompetition(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	h := &harness{store: store, events: pubsub.NewMock(), metrics: metrics.NewMock()}
	h.svc = tournament.New(store, club.New(store), h.events, h.metrics, noop.NewTracerProvider().Tracer("test"), 40)
	return h
}

func cup(id string, alg pairing.Algorithm, rounds int) *ledger.Competition {
	return &ledger.Competition{
		ID:                id,
		Name:              "Cup " + id,
		Type:              ledger.CompetitionTournament,
		Status:            ledger.CompetitionActive,
		ValidationEnabled: true,
		ParticipantIDs:    eight,
		TotalRounds:       rounds,
		PairingAlgorithm:  alg,
	}
}

// finishRound marks every table of the active round validated, completes
// the round and clears the active pointer, the way a final commit does.
func (h *harness) finishRound(t *testing.T, competitionID string, roundNumber int) {
	t.Helper()
	ctx := context.Background()
	err := h.store.RunInTx(ctx, func(tx ledger.Tx) error {
		round, err := tx.GetRound(ctx, ledger.RoundID(competitionID, roundNumber))
		if err != nil {
			return err
		}
		for i, table := range round.Tables {
			table.Status = ledger.TableValidated
			round.Tables[i] = table
		}
		round.Status = ledger.RoundCompleted
		if err := tx.PutRound(ctx, round); err != nil {
			return err
		}
		comp, err := tx.GetCompetition(ctx, "club1", competitionID)
		if err != nil {
			return err
		}
		comp.TournamentState = ledger.TournamentState{LastCompletedRound: roundNumber}
		return tx.PutCompetition(ctx, comp)
	})
	require.NoError(t, err)
}

func assertCoversPlayers(t *testing.T, tables []pairing.Table, want []string) {
	t.Helper()
	require.Len(t, tables, len(want)/pairing.TableSize)
	var got []string
	for i, table := range tables {
		assert.Equal(t, i, table.TableIndex)
		assert.Len(t, table.PlayerIDs, pairing.TableSize)
		got = append(got, table.PlayerIDs...)
	}
	assert.ElementsMatch(t, want, got)
}

func TestCreateRound_PrecomputedSchedule(t *testing.T) {
	h := setupHarness(t, cup("pre", pairing.PrecomputedMinRepeats, 2))
	ctx := context.Background()
	in := tournament.CreateRoundInput{ClubID: "club1", CompetitionID: "pre"}

	res, err := h.svc.CreateRound(ctx, "boss", in)
	require.NoError(t, err)
	assert.Equal(t, "pre_round_01", res.RoundID)
	assert.Equal(t, 1, res.RoundNumber)
	assertCoversPlayers(t, res.Tables, eight)

	rounds, err := h.store.ListRounds(ctx, "pre")
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, ledger.RoundActive, rounds[0].Status)
	assert.Equal(t, ledger.RoundScheduled, rounds[1].Status)
	for _, r := range rounds {
		for _, table := range r.Tables {
			assert.Equal(t, ledger.TableAwaitingResult, table.Status)
		}
	}

	// Two rounds of eight players cannot avoid every repeat: each second
	// round table draws at least two pairs from a first round table.
	score := pairing.BuildEncounters([][]pairing.Table{rounds[0].Pairings(), rounds[1].Pairings()}).Score()
	assert.Equal(t, 2, score[0])
	assert.LessOrEqual(t, score[1], 4)

	comp, err := h.store.GetCompetition(ctx, "club1", "pre")
	require.NoError(t, err)
	require.NotNil(t, comp.TournamentState.ActiveRoundNumber)
	assert.Equal(t, 1, *comp.TournamentState.ActiveRoundNumber)

	_, err = h.svc.CreateRound(ctx, "boss", in)
	assert.Equal(t, apperr.FailedPrecondition, apperr.CodeOf(err))
	assert.Equal(t, "Round 1 is still active.", apperr.MessageOf(err))

	h.finishRound(t, "pre", 1)
	res, err = h.svc.CreateRound(ctx, "boss", in)
	require.NoError(t, err)
	assert.Equal(t, "pre_round_02", res.RoundID)
	assert.Equal(t, rounds[1].Pairings(), res.Tables)

	comp, err = h.store.GetCompetition(ctx, "club1", "pre")
	require.NoError(t, err)
	require.NotNil(t, comp.TournamentState.ActiveRoundNumber)
	assert.Equal(t, 2, *comp.TournamentState.ActiveRoundNumber)
	assert.Equal(t, 1, comp.TournamentState.LastCompletedRound)

	h.finishRound(t, "pre", 2)
	_, err = h.svc.CreateRound(ctx, "boss", in)
	assert.Equal(t, apperr.FailedPrecondition, apperr.CodeOf(err))
	assert.Equal(t, "Tournament already reached configured total rounds.", apperr.MessageOf(err))

	assert.Equal(t, 2, h.metrics.RoundsCreated(string(pairing.PrecomputedMinRepeats)))
	assert.Equal(t, 2, h.metrics.EventsPublished(string(pubsub.EventRoundActivated)))
	calls := h.events.Calls()
	require.Len(t, calls, 2)
	event, ok := calls[0].Data.(pubsub.RoundActivated)
	require.True(t, ok)
	assert.Equal(t, "pre_round_01", event.RoundID)
	assert.Len(t, event.Tables, 2)
}

func TestCreateRound_PrecomputedPromotesEveryScheduledRound(t *testing.T) {
	h := setupHarness(t, cup("long", pairing.PrecomputedMinRepeats, 3))
	ctx := context.Background()
	in := tournament.CreateRoundInput{ClubID: "club1", CompetitionID: "long"}

	_, err := h.svc.CreateRound(ctx, "boss", in)
	require.NoError(t, err)
	schedule, err := h.store.ListRounds(ctx, "long")
	require.NoError(t, err)
	require.Len(t, schedule, 3)

	for n := 2; n <= 3; n++ {
		h.finishRound(t, "long", n-1)
		res, err := h.svc.CreateRound(ctx, "boss", in)
		require.NoError(t, err, "round %d", n)
		assert.Equal(t, n, res.RoundNumber)
		assert.Equal(t, ledger.RoundID("long", n), res.RoundID)
		assert.Equal(t, schedule[n-1].Pairings(), res.Tables)
	}

	rounds, err := h.store.ListRounds(ctx, "long")
	require.NoError(t, err)
	assert.Len(t, rounds, 3, "promotion never writes new rounds")

	h.finishRound(t, "long", 3)
	_, err = h.svc.CreateRound(ctx, "boss", in)
	assert.Equal(t, "Tournament already reached configured total rounds.", apperr.MessageOf(err))
	assert.Equal(t, 3, h.metrics.RoundsCreated(string(pairing.PrecomputedMinRepeats)))
}

func TestCreateRound_Swiss(t *testing.T) {
	h := setupHarness(t, cup("swiss", pairing.PerformanceSwiss, 3))
	ctx := context.Background()
	in := tournament.CreateRoundInput{ClubID: "club1", CompetitionID: "swiss"}

	first, err := h.svc.CreateRound(ctx, "boss", in)
	require.NoError(t, err)
	assert.Equal(t, "swiss_round_01", first.RoundID)
	assertCoversPlayers(t, first.Tables, eight)

	rounds, err := h.store.ListRounds(ctx, "swiss")
	require.NoError(t, err)
	require.Len(t, rounds, 1, "swiss rounds are created one at a time")
	assert.Equal(t, ledger.RoundActive, rounds[0].Status)

	h.finishRound(t, "swiss", 1)
	err = h.store.RunInTx(ctx, func(tx ledger.Tx) error {
		for i, id := range eight {
			err := tx.ApplyDelta(ctx, leaderboard.Delta{
				Scope:            leaderboard.ScopeCompetition,
				ClubID:           "club1",
				CompetitionID:    "swiss",
				UserID:           id,
				TotalPointsDelta: float64(40 - 10*i),
				GamesPlayedDelta: 1,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	second, err := h.svc.CreateRound(ctx, "boss", in)
	require.NoError(t, err)
	assert.Equal(t, "swiss_round_02", second.RoundID)
	assert.Equal(t, 2, second.RoundNumber)
	assertCoversPlayers(t, second.Tables, eight)

	score := pairing.BuildEncounters([][]pairing.Table{first.Tables, second.Tables}).Score()
	assert.LessOrEqual(t, score[1], 4)
	assert.Equal(t, 2, h.metrics.RoundsCreated(string(pairing.PerformanceSwiss)))
}

func TestCreateRound_DefaultsToSwiss(t *testing.T) {
	h := setupHarness(t, cup("plain", "", 1))

	res, err := h.svc.CreateRound(context.Background(), "boss", tournament.CreateRoundInput{ClubID: "club1", CompetitionID: "plain"})
	require.NoError(t, err)
	assertCoversPlayers(t, res.Tables, eight)
	assert.Equal(t, 1, h.metrics.RoundsCreated(string(pairing.PerformanceSwiss)))
}

func TestCreateRound_Errors(t *testing.T) {
	one := 1
	withState := cup("stuck", pairing.PerformanceSwiss, 2)
	withState.TournamentState.ActiveRoundNumber = &one
	six := cup("six", pairing.PerformanceSwiss, 1)
	six.ParticipantIDs = eight[:6]
	dup := cup("dup", pairing.PerformanceSwiss, 1)
	dup.ParticipantIDs = []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p1"}
	stranger := cup("stranger", pairing.PerformanceSwiss, 1)
	stranger.ParticipantIDs = append(append([]string{}, eight[:7]...), "outsider")
	noRounds := cup("norounds", pairing.PerformanceSwiss, 0)
	badAlg := cup("badalg", "round_robin", 1)
	draft := cup("draft", pairing.PerformanceSwiss, 1)
	draft.Status = ledger.CompetitionDraft
	champ := &ledger.Competition{ID: "champ", Name: "Season", Type: ledger.CompetitionChampionship, Status: ledger.CompetitionActive}

	tests := []struct {
		name        string
		caller      string
		competition string
		wantCode    apperr.Code
		wantMessage string
	}{
		{name: "anonymous", caller: " ", competition: "six", wantCode: apperr.Unauthenticated},
		{name: "not a member", caller: "outsider", competition: "six", wantCode: apperr.PermissionDenied, wantMessage: "You are not a club member."},
		{name: "not an admin", caller: "p1", competition: "six", wantCode: apperr.PermissionDenied, wantMessage: "Only admin can generate tournament rounds."},
		{name: "unknown competition", caller: "boss", competition: "ghost", wantCode: apperr.NotFound, wantMessage: "Competition not found."},
		{name: "championship", caller: "boss", competition: "champ", wantCode: apperr.FailedPrecondition, wantMessage: "Round generation is only available for tournaments."},
		{name: "draft tournament", caller: "boss", competition: "draft", wantCode: apperr.FailedPrecondition, wantMessage: "Tournament must be active."},
		{name: "unknown algorithm", caller: "boss", competition: "badalg", wantCode: apperr.InvalidArgument},
		{name: "player count", caller: "boss", competition: "six", wantCode: apperr.FailedPrecondition, wantMessage: "Tournament participants must be a multiple of 4."},
		{name: "duplicate players", caller: "boss", competition: "dup", wantCode: apperr.FailedPrecondition, wantMessage: "Tournament participants must be unique."},
		{name: "participant left the club", caller: "boss", competition: "stranger", wantCode: apperr.FailedPrecondition, wantMessage: "All tournament participants must be club members."},
		{name: "no rounds configured", caller: "boss", competition: "norounds", wantCode: apperr.FailedPrecondition, wantMessage: "Tournament total rounds must be greater than zero."},
		{name: "active pointer already set", caller: "boss", competition: "stuck", wantCode: apperr.FailedPrecondition, wantMessage: "There is already an active round."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupHarness(t, withState, six, dup, stranger, noRounds, badAlg, draft, champ)

			_, err := h.svc.CreateRound(context.Background(), tt.caller, tournament.CreateRoundInput{ClubID: "club1", CompetitionID: tt.competition})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperr.CodeOf(err))
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, apperr.MessageOf(err))
			}
			assert.Empty(t, h.events.Calls())
		})
	}
}

func TestCreateRound_RoundAlreadyExists(t *testing.T) {
	h := setupHarness(t, cup("swiss", pairing.PerformanceSwiss, 2), cup("elsewhere", pairing.PerformanceSwiss, 2))
	ctx := context.Background()

	// A round row holding the next id but listed under another competition,
	// as left behind by a concurrent writer.
	err := h.store.RunInTx(ctx, func(tx ledger.Tx) error {
		stray := ledger.NewRound("club1", "elsewhere", 1, ledger.RoundCompleted, nil)
		stray.ID = ledger.RoundID("swiss", 1)
		return tx.CreateRound(ctx, stray)
	})
	require.NoError(t, err)

	_, err = h.svc.CreateRound(ctx, "boss", tournament.CreateRoundInput{ClubID: "club1", CompetitionID: "swiss"})
	require.Error(t, err)
	assert.Equal(t, apperr.AlreadyExists, apperr.CodeOf(err))
	assert.Equal(t, "Round already exists.", apperr.MessageOf(err))
	assert.Empty(t, h.events.Calls())

	comp, err := h.store.GetCompetition(ctx, "club1", "swiss")
	require.NoError(t, err)
	assert.Nil(t, comp.TournamentState.ActiveRoundNumber)
}

func TestMock_CreateRound(t *testing.T) {
	m := tournament.NewMock()
	res, err := m.CreateRound(context.Background(), "boss", tournament.CreateRoundInput{ClubID: "club1", CompetitionID: "cup"})
	require.NoError(t, err)
	assert.Equal(t, "cup_round_01", res.RoundID)
	require.Len(t, m.CreateRoundCalls, 1)

	m.Reset()
	assert.Empty(t, m.CreateRoundCalls)
}
