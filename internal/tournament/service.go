package tournament

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/riichi-ledger/internal/apperr"
	"github.com/mauv0809/riichi-ledger/internal/approval"
	"github.com/mauv0809/riichi-ledger/internal/club"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
	"github.com/mauv0809/riichi-ledger/internal/leaderboard"
	"github.com/mauv0809/riichi-ledger/internal/metrics"
	"github.com/mauv0809/riichi-ledger/internal/pairing"
	"github.com/mauv0809/riichi-ledger/internal/pubsub"
	"github.com/mauv0809/riichi-ledger/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
)

var _ Service = (*service)(nil)

// New creates a tournament Service. attempts is the number of randomized
// schedules tried for precomputed tournaments; zero uses
// pairing.DefaultAttempts. events may be nil.
func New(store ledger.Store, directory club.Directory, events pubsub.PubSubClient, m metrics.Metrics, tracer trace.Tracer, attempts int) Service {
	if tracer == nil {
		tracer = telemetry.Tracer()
	}
	return &service{
		store:     store,
		directory: directory,
		events:    events,
		metrics:   m,
		tracer:    tracer,
		attempts:  attempts,
	}
}

func (s *service) CreateRound(ctx context.Context, callerID string, in CreateRoundInput) (*CreateRoundResult, error) {
	return telemetry.Run(ctx, s.tracer, "TournamentService.CreateRound", in.CompetitionID, func(ctx context.Context) (*CreateRoundResult, error) {
		return s.createRound(ctx, callerID, in)
	})
}

func (s *service) createRound(ctx context.Context, callerID string, in CreateRoundInput) (*CreateRoundResult, error) {
	caller := approval.NormalizeUserID(callerID)
	if caller == "" {
		return nil, apperr.New(apperr.Unauthenticated, "Authentication is required.")
	}
	if strings.TrimSpace(in.ClubID) == "" || strings.TrimSpace(in.CompetitionID) == "" {
		return nil, apperr.Invalid("clubId and competitionId are required.")
	}

	member, err := s.directory.Membership(ctx, in.ClubID, caller)
	if err != nil {
		return nil, err
	}
	if !member.IsAdmin() {
		return nil, apperr.Denied("Only admin can generate tournament rounds.")
	}

	comp, err := s.store.GetCompetition(ctx, in.ClubID, in.CompetitionID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, apperr.Missing("Competition not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}
	alg, err := checkCompetition(comp)
	if err != nil {
		return nil, err
	}
	missing, err := s.directory.MissingMembers(ctx, in.ClubID, comp.ParticipantIDs)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, apperr.Precondition("All tournament participants must be club members.")
	}

	rounds, err := s.store.ListRounds(ctx, comp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	// Scheduled rounds of a precomputed tournament are not played yet and do
	// not count toward the total.
	last := 0
	for _, r := range rounds {
		if r.Status == ledger.RoundActive {
			return nil, apperr.Precondition("Round %d is still active.", r.RoundNumber)
		}
		if r.Status != ledger.RoundScheduled {
			last = max(last, r.RoundNumber)
		}
	}

	var round *ledger.Round
	switch {
	case alg == pairing.PrecomputedMinRepeats && len(rounds) > 0:
		round, err = s.activateScheduled(ctx, comp, rounds, last)
	case last+1 > comp.TotalRounds:
		return nil, apperr.Precondition("Tournament already reached configured total rounds.")
	case alg == pairing.PrecomputedMinRepeats:
		round, err = s.createSchedule(ctx, comp)
	default:
		round, err = s.createSwissRound(ctx, comp, rounds, last+1)
	}
	if err != nil {
		return nil, err
	}

	result := &CreateRoundResult{RoundID: round.ID, RoundNumber: round.RoundNumber, Tables: round.Pairings()}
	s.metrics.IncRoundsCreated(string(alg))
	log.Info("Tournament round activated", "competitionID", comp.ID, "roundID", round.ID, "algorithm", alg, "tables", len(result.Tables), "by", caller)

	event := pubsub.RoundActivated{
		ClubID:        comp.ClubID,
		CompetitionID: comp.ID,
		RoundID:       round.ID,
		RoundNumber:   round.RoundNumber,
	}
	for _, t := range result.Tables {
		event.Tables = append(event.Tables, t.PlayerIDs)
	}
	pubsub.Publish(context.WithoutCancel(ctx), s.events, s.metrics, pubsub.EventRoundActivated, event)
	return result, nil
}

// checkCompetition verifies a competition can have rounds generated and
// returns its pairing algorithm.
func checkCompetition(comp *ledger.Competition) (pairing.Algorithm, error) {
	if comp.Type != ledger.CompetitionTournament {
		return "", apperr.Precondition("Round generation is only available for tournaments.")
	}
	if comp.Status != ledger.CompetitionActive {
		return "", apperr.Precondition("Tournament must be active.")
	}
	name := string(comp.PairingAlgorithm)
	if name == "" {
		name = string(pairing.PerformanceSwiss)
	}
	alg, err := pairing.ParseAlgorithm(name)
	if err != nil {
		return "", apperr.Invalid("Unsupported pairing algorithm: %s.", name)
	}

	players := comp.ParticipantIDs
	if len(players) < pairing.TableSize || len(players)%pairing.TableSize != 0 {
		return "", apperr.Precondition("Tournament participants must be a multiple of 4.")
	}
	seen := make(map[string]bool, len(players))
	for _, id := range players {
		if seen[id] {
			return "", apperr.Precondition("Tournament participants must be unique.")
		}
		seen[id] = true
	}
	if comp.TotalRounds <= 0 {
		return "", apperr.Precondition("Tournament total rounds must be greater than zero.")
	}
	return alg, nil
}

// lockCompetition re-reads the competition inside tx and refuses to go on
// while a round is active.
func lockCompetition(ctx context.Context, tx ledger.Tx, clubID, competitionID string) (*ledger.Competition, error) {
	comp, err := tx.GetCompetition(ctx, clubID, competitionID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, apperr.Missing("Competition not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}
	if comp.TournamentState.ActiveRoundNumber != nil {
		return nil, apperr.Precondition("There is already an active round.")
	}
	return comp, nil
}

func activate(ctx context.Context, tx ledger.Tx, comp *ledger.Competition, roundNumber int) error {
	comp.TournamentState.ActiveRoundNumber = &roundNumber
	return tx.PutCompetition(ctx, comp)
}

func createRoundTx(ctx context.Context, tx ledger.Tx, round *ledger.Round) error {
	err := tx.CreateRound(ctx, round)
	if errors.Is(err, ledger.ErrAlreadyExists) {
		return apperr.New(apperr.AlreadyExists, "Round already exists.")
	}
	return err
}

// createSchedule writes every round of a precomputed tournament. Round 1 is
// active, the rest wait to be promoted.
func (s *service) createSchedule(ctx context.Context, comp *ledger.Competition) (*ledger.Round, error) {
	schedule, err := pairing.Precompute(pairing.PrecomputeInput{
		PlayerIDs: comp.ParticipantIDs,
		Rounds:    comp.TotalRounds,
		Attempts:  s.attempts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to precompute schedule: %w", err)
	}

	var first *ledger.Round
	err = s.store.RunInTx(ctx, func(tx ledger.Tx) error {
		fresh, err := lockCompetition(ctx, tx, comp.ClubID, comp.ID)
		if err != nil {
			return err
		}
		for i, tables := range schedule {
			status := ledger.RoundScheduled
			if i == 0 {
				status = ledger.RoundActive
			}
			round := ledger.NewRound(comp.ClubID, comp.ID, i+1, status, tables)
			if err := createRoundTx(ctx, tx, round); err != nil {
				return err
			}
			if i == 0 {
				first = round
			}
		}
		return activate(ctx, tx, fresh, 1)
	})
	if err != nil {
		return nil, err
	}
	log.Debug("Precomputed tournament schedule", "competitionID", comp.ID, "rounds", len(schedule))
	return first, nil
}

// activateScheduled promotes the lowest numbered scheduled round. last is
// the highest round already played.
func (s *service) activateScheduled(ctx context.Context, comp *ledger.Competition, rounds []ledger.Round, last int) (*ledger.Round, error) {
	var next *ledger.Round
	for i := range rounds {
		if rounds[i].Status != ledger.RoundScheduled {
			continue
		}
		if next == nil || rounds[i].RoundNumber < next.RoundNumber {
			next = &rounds[i]
		}
	}
	if next == nil {
		if last >= comp.TotalRounds {
			return nil, apperr.Precondition("Tournament already reached configured total rounds.")
		}
		return nil, apperr.Precondition("No scheduled round available for activation.")
	}

	var round *ledger.Round
	err := s.store.RunInTx(ctx, func(tx ledger.Tx) error {
		fresh, err := lockCompetition(ctx, tx, comp.ClubID, comp.ID)
		if err != nil {
			return err
		}
		round, err = tx.GetRound(ctx, next.ID)
		if errors.Is(err, ledger.ErrNotFound) {
			return apperr.Missing("Round not found.")
		}
		if err != nil {
			return fmt.Errorf("failed to load round: %w", err)
		}
		if round.Status != ledger.RoundScheduled {
			return apperr.Precondition("Round is not in scheduled status.")
		}
		round.Status = ledger.RoundActive
		if err := tx.PutRound(ctx, round); err != nil {
			return err
		}
		return activate(ctx, tx, fresh, round.RoundNumber)
	})
	if err != nil {
		return nil, err
	}
	return round, nil
}

// createSwissRound pairs the next round from the current standings and the
// encounters of every earlier round.
func (s *service) createSwissRound(ctx context.Context, comp *ledger.Competition, rounds []ledger.Round, roundNumber int) (*ledger.Round, error) {
	entries, err := s.store.ListLeaderboard(ctx, comp.ClubID, comp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load standings: %w", err)
	}
	history := make([][]pairing.Table, 0, len(rounds))
	for i := range rounds {
		history = append(history, rounds[i].Pairings())
	}

	tables, err := pairing.Incremental(pairing.IncrementalInput{
		PlayerIDs:  comp.ParticipantIDs,
		Standings:  leaderboard.Standings(entries),
		Encounters: pairing.BuildEncounters(history),
		Seed:       pairing.Seed(fmt.Sprintf("%s::%d", comp.ID, roundNumber)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pair round %d: %w", roundNumber, err)
	}

	round := ledger.NewRound(comp.ClubID, comp.ID, roundNumber, ledger.RoundActive, tables)
	err = s.store.RunInTx(ctx, func(tx ledger.Tx) error {
		fresh, err := lockCompetition(ctx, tx, comp.ClubID, comp.ID)
		if err != nil {
			return err
		}
		if err := createRoundTx(ctx, tx, round); err != nil {
			return err
		}
		return activate(ctx, tx, fresh, roundNumber)
	})
	if err != nil {
		return nil, err
	}
	return round, nil
}
