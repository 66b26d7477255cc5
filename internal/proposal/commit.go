package proposal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/riichi-ledger/internal/apperr"
	"github.com/mauv0809/riichi-ledger/internal/approval"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
	"github.com/mauv0809/riichi-ledger/internal/leaderboard"
	"github.com/mauv0809/riichi-ledger/internal/pubsub"
	"github.com/mauv0809/riichi-ledger/internal/telemetry"
)

func (s *service) Commit(ctx context.Context, proposalID string) (*DecisionResult, error) {
	return telemetry.Run(ctx, s.tracer, "ProposalService.Commit", proposalID, func(ctx context.Context) (*DecisionResult, error) {
		id, err := normalizeID(proposalID, "Proposal")
		if err != nil {
			return nil, err
		}
		var outcome *commitOutcome
		err = s.store.RunInTx(ctx, func(tx ledger.Tx) error {
			outcome, err = s.commitTx(ctx, tx, id)
			return err
		})
		if err != nil {
			return nil, err
		}
		s.afterCommit(ctx, outcome)
		return outcome.result(), nil
	})
}

// commitTx turns an approved proposal into the game's next version and
// applies the leaderboard deltas against the version it replaces.
func (s *service) commitTx(ctx context.Context, tx ledger.Tx, proposalID string) (*commitOutcome, error) {
	start := time.Now()
	p, game, err := loadProposal(ctx, tx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.IsTerminal() {
		return &commitOutcome{proposal: p, game: game}, nil
	}

	view := approval.Resolve(p.Validation.Raw())
	if view.HasRejection {
		return nil, apperr.Precondition("Proposal already rejected.")
	}
	if !view.UnanimityReached {
		return nil, apperr.Precondition("Unanimity not reached yet.")
	}
	if game.ActiveVersionID != p.FromVersionID {
		return nil, apperr.Precondition("Game version changed since the proposal was submitted.")
	}

	var previous *ledger.Version
	if p.FromVersionID != "" {
		previous, err = tx.GetVersion(ctx, p.FromVersionID)
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, apperr.Missing("Version %s not found.", p.FromVersionID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load version: %w", err)
		}
	}

	number := 1
	if previous != nil {
		number = previous.VersionNumber + 1
	}
	version := &ledger.Version{
		ID:             s.newID(),
		GameID:         game.ID,
		ClubID:         game.ClubID,
		VersionNumber:  number,
		Participants:   p.Proposed.Participants,
		FinalScores:    p.Proposed.FinalScores,
		CompetitionIDs: p.Proposed.CompetitionIDs,
		Rules:          p.Rules,
		Computed:       p.Preview,
		CreatedBy:      p.CreatedBy,
	}
	if err := tx.CreateVersion(ctx, version); err != nil {
		if errors.Is(err, ledger.ErrAlreadyExists) {
			return nil, apperr.Wrap(apperr.FailedPrecondition, err, "Game version was committed concurrently.")
		}
		return nil, err
	}

	var prevBoard *leaderboard.Version
	if previous != nil {
		v := previous.Leaderboard()
		prevBoard = &v
	}
	deltas := leaderboard.ComputeDelta(prevBoard, version.Leaderboard())
	for _, d := range deltas {
		if err := tx.ApplyDelta(ctx, d); err != nil {
			return nil, err
		}
	}

	if err := game.TransitionTo(ledger.GameValidated); err != nil {
		return nil, err
	}
	game.Participants = version.Participants
	game.CompetitionIDs = version.CompetitionIDs
	game.ActiveVersionID = version.ID
	game.PendingAction = nil
	if err := tx.PutGame(ctx, game); err != nil {
		return nil, err
	}

	p.Status = ledger.ProposalAccepted
	p.Validation = view.Record
	if err := tx.PutProposal(ctx, p); err != nil {
		return nil, err
	}
	if err := writeRequests(ctx, tx, p); err != nil {
		return nil, err
	}

	outcome := &commitOutcome{
		applied:  true,
		proposal: p,
		game:     game,
		version:  version,
		deltas:   deltas,
	}
	if p.Tournament != nil {
		if err := completeTable(ctx, tx, p, outcome); err != nil {
			return nil, err
		}
	}
	outcome.duration = time.Since(start)
	return outcome, nil
}

// completeTable validates the proposal's table. The last validated table
// completes the round, and the configured final round archives the
// tournament.
func completeTable(ctx context.Context, tx ledger.Tx, p *ledger.Proposal, outcome *commitOutcome) error {
	round, err := tx.GetRound(ctx, p.Tournament.RoundID)
	if errors.Is(err, ledger.ErrNotFound) {
		log.Warn("Committed proposal points at a missing round", "proposalID", p.ID, "roundID", p.Tournament.RoundID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load round: %w", err)
	}
	if !setTableStatus(round, p.Tournament.TableIndex, ledger.TableValidated, p.ID, p.GameID) {
		return nil
	}

	if round.Status == ledger.RoundActive && round.AllValidated() {
		round.Status = ledger.RoundCompleted
		outcome.roundCompleted = true

		comp, err := tx.GetCompetition(ctx, round.ClubID, round.CompetitionID)
		if err != nil {
			return fmt.Errorf("failed to load competition: %w", err)
		}
		last := comp.TournamentState.LastCompletedRound
		if round.RoundNumber > last {
			last = round.RoundNumber
		}
		comp.TournamentState = ledger.TournamentState{ActiveRoundNumber: nil, LastCompletedRound: last}
		if comp.TotalRounds > 0 && round.RoundNumber >= comp.TotalRounds {
			comp.Status = ledger.CompetitionArchived
			outcome.archived = true
		}
		if err := tx.PutCompetition(ctx, comp); err != nil {
			return err
		}
	}
	return tx.PutRound(ctx, round)
}

// afterCommit records and announces a commit once its transaction is
// durable.
func (s *service) afterCommit(ctx context.Context, o *commitOutcome) {
	if o == nil || !o.applied {
		return
	}
	s.metrics.IncProposalsAccepted()
	s.metrics.ObserveCommitDuration(o.duration.Seconds())
	log.Info("Proposal accepted", "proposalID", o.proposal.ID, "gameID", o.game.ID,
		"versionID", o.version.ID, "versionNumber", o.version.VersionNumber, "deltas", len(o.deltas))
	if o.roundCompleted {
		log.Info("Tournament round completed", "roundID", o.proposal.Tournament.RoundID, "archived", o.archived)
	}

	changes := make([]pubsub.LeaderboardChange, 0, len(o.deltas))
	for _, d := range o.deltas {
		changes = append(changes, pubsub.LeaderboardChange{
			Scope:         string(d.Scope),
			CompetitionID: d.CompetitionID,
			UserID:        d.UserID,
			Points:        d.TotalPointsDelta,
			Games:         d.GamesPlayedDelta,
		})
	}
	pubsub.Publish(ctx, s.events, s.metrics, pubsub.EventProposalAccepted, pubsub.ProposalAccepted{
		ClubID:        o.game.ClubID,
		GameID:        o.game.ID,
		ProposalID:    o.proposal.ID,
		VersionID:     o.version.ID,
		VersionNumber: o.version.VersionNumber,
		Changes:       changes,
		AcceptedAt:    o.version.CreatedAt,
	})
}
