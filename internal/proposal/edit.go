package proposal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/riichi-ledger/internal/apperr"
	"github.com/mauv0809/riichi-ledger/internal/approval"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
	"github.com/mauv0809/riichi-ledger/internal/scoring"
	"github.com/mauv0809/riichi-ledger/internal/telemetry"
)

// SubmitEdit proposes a change to a game's result. The voters are the
// game's current participants plus anyone the edit brings in.
func (s *service) SubmitEdit(ctx context.Context, callerID string, in EditInput) (*SubmitResult, error) {
	return telemetry.Run(ctx, s.tracer, "ProposalService.SubmitEdit", in.GameID, func(ctx context.Context) (*SubmitResult, error) {
		caller, err := requireCaller(callerID)
		if err != nil {
			return nil, err
		}
		return s.submitEdit(ctx, caller, in)
	})
}

func (s *service) submitEdit(ctx context.Context, caller string, in EditInput) (*SubmitResult, error) {
	gameID, err := normalizeID(in.GameID, "Game")
	if err != nil {
		return nil, err
	}
	proposed := in.Proposed
	if err := validateParticipants(proposed.Participants); err != nil {
		return nil, err
	}
	if err := validateCompetitionIDs(proposed.CompetitionIDs); err != nil {
		return nil, err
	}
	fromVersionID := strings.TrimSpace(in.FromVersionID)

	game, err := s.store.GetGame(ctx, gameID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, apperr.Missing("Game not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	if _, err := s.directory.Membership(ctx, game.ClubID, caller); err != nil {
		return nil, err
	}
	if err := s.requireMembers(ctx, game.ClubID, proposed.Participants); err != nil {
		return nil, err
	}

	var (
		result *SubmitResult
		notice *pendingNotice
	)
	err = s.store.RunInTx(ctx, func(tx ledger.Tx) error {
		game, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return fmt.Errorf("failed to load game: %w", err)
		}
		switch {
		case game.Status == ledger.GameCancelled:
			return apperr.Precondition("Cancelled game cannot be edited.")
		case game.ActiveVersionID != fromVersionID:
			return apperr.Precondition("fromVersionId must match current active version.")
		case game.Status == ledger.GamePendingValidation:
			return apperr.Precondition("Game already has a proposal awaiting validation.")
		}

		clubDoc, err := tx.GetClub(ctx, game.ClubID)
		if err != nil {
			return fmt.Errorf("failed to load club: %w", err)
		}
		comp, err := activeCompetition(ctx, tx, game.ClubID, proposed.CompetitionIDs[0])
		if err != nil {
			return err
		}

		rules := comp.ResolveRules(clubDoc)
		if err := scoring.ValidateScores(proposed.Participants, proposed.FinalScores, rules.ScoreSum); err != nil {
			return err
		}
		preview := scoring.ComputeOutcome(proposed.Participants, proposed.FinalScores, rules)
		required := ledger.VoterIDs(game.Participants, proposed.Participants)

		p := &ledger.Proposal{
			ID:            s.newID(),
			ClubID:        game.ClubID,
			GameID:        game.ID,
			Kind:          ledger.KindEdit,
			Status:        ledger.ProposalPending,
			FromVersionID: fromVersionID,
			Proposed:      proposed,
			Rules:         rules,
			Preview:       preview,
			Validation:    approval.CreatePending(required),
			CreatedBy:     caller,
		}
		if err := tx.PutProposal(ctx, p); err != nil {
			return err
		}

		if err := game.TransitionTo(ledger.GamePendingValidation); err != nil {
			return err
		}
		game.PendingAction = &ledger.PendingAction{Kind: ledger.KindEdit, ProposalID: p.ID}
		if err := tx.PutGame(ctx, game); err != nil {
			return err
		}
		if err := writeRequests(ctx, tx, p); err != nil {
			return err
		}

		result = &SubmitResult{GameID: game.ID, ProposalID: p.ID, Status: game.Status}
		notice = &pendingNotice{
			kind:       ledger.RequestGameEdit,
			proposalID: p.ID,
			gameID:     game.ID,
			userIDs:    p.Validation.RequiredUserIDs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncProposalsSubmitted(string(ledger.KindEdit))
	log.Info("Game edit proposed", "gameID", result.GameID, "proposalID", result.ProposalID, "fromVersionID", fromVersionID, "by", caller)
	s.notify(ctx, notice)
	return result, nil
}
