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

// SubmitCreate proposes a new game. Every participant becomes a required
// voter; the submitter is not approved implicitly.
func (s *service) SubmitCreate(ctx context.Context, callerID string, in CreateInput) (*SubmitResult, error) {
	return telemetry.Run(ctx, s.tracer, "ProposalService.SubmitCreate", in.ClubID, func(ctx context.Context) (*SubmitResult, error) {
		caller, err := requireCaller(callerID)
		if err != nil {
			return nil, err
		}
		return s.submitCreate(ctx, caller, in)
	})
}

func validateCreateInput(in CreateInput) error {
	if strings.TrimSpace(in.ClubID) == "" {
		return apperr.Invalid("clubId: is required")
	}
	if err := validateParticipants(in.Participants); err != nil {
		return err
	}
	if err := validateCompetitionIDs(in.CompetitionIDs); err != nil {
		return err
	}
	if in.Tournament != nil {
		if strings.TrimSpace(in.Tournament.RoundID) == "" {
			return apperr.Invalid("tournamentContext.roundId: is required")
		}
		if in.Tournament.TableIndex < 0 {
			return apperr.Invalid("tournamentContext.tableIndex: must not be negative")
		}
	}
	return nil
}

func (s *service) submitCreate(ctx context.Context, caller string, in CreateInput) (*SubmitResult, error) {
	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	if _, err := s.store.GetClub(ctx, in.ClubID); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, apperr.Missing("Club not found.")
		}
		return nil, fmt.Errorf("failed to load club: %w", err)
	}
	creator, err := s.directory.Membership(ctx, in.ClubID, caller)
	if err != nil {
		return nil, err
	}
	if err := s.requireMembers(ctx, in.ClubID, in.Participants); err != nil {
		return nil, err
	}

	var (
		result  *SubmitResult
		outcome *commitOutcome
		notice  *pendingNotice
	)
	err = s.store.RunInTx(ctx, func(tx ledger.Tx) error {
		clubDoc, err := tx.GetClub(ctx, in.ClubID)
		if err != nil {
			return fmt.Errorf("failed to load club: %w", err)
		}
		comp, err := activeCompetition(ctx, tx, in.ClubID, in.CompetitionIDs[0])
		if err != nil {
			return err
		}

		switch {
		case comp.Type == ledger.CompetitionTournament && in.Tournament == nil:
			return apperr.Precondition("Tournament games must be submitted from an active tournament table.")
		case comp.Type == ledger.CompetitionChampionship && in.Tournament != nil:
			return apperr.Precondition("Tournament context is not allowed for championship games.")
		}

		var (
			round *ledger.Round
			link  *ledger.TournamentContext
		)
		if in.Tournament != nil {
			round, err = submissionTable(ctx, tx, creator, comp, *in.Tournament, in.Participants)
			if err != nil {
				return err
			}
			link = &ledger.TournamentContext{
				CompetitionID: comp.ID,
				RoundID:       round.ID,
				TableIndex:    in.Tournament.TableIndex,
			}
		}

		rules := comp.ResolveRules(clubDoc)
		if err := scoring.ValidateScores(in.Participants, in.FinalScores, rules.ScoreSum); err != nil {
			return err
		}
		preview := scoring.ComputeOutcome(in.Participants, in.FinalScores, rules)

		validation := approval.CreatePending(in.Participants)
		if !comp.ValidationEnabled {
			validation = approval.CreateApproved(in.Participants)
		}

		gameID, proposalID := s.newID(), s.newID()
		game := &ledger.Game{
			ID:             gameID,
			ClubID:         in.ClubID,
			Status:         ledger.GamePendingValidation,
			Participants:   in.Participants,
			CompetitionIDs: in.CompetitionIDs,
			PendingAction:  &ledger.PendingAction{Kind: ledger.KindCreate, ProposalID: proposalID},
			Tournament:     link,
			CreatedBy:      caller,
		}
		if err := tx.PutGame(ctx, game); err != nil {
			return err
		}

		p := &ledger.Proposal{
			ID:     proposalID,
			ClubID: in.ClubID,
			GameID: gameID,
			Kind:   ledger.KindCreate,
			Status: ledger.ProposalPending,
			Proposed: ledger.ProposedVersion{
				Participants:   in.Participants,
				FinalScores:    in.FinalScores,
				CompetitionIDs: in.CompetitionIDs,
			},
			Rules:      rules,
			Preview:    preview,
			Validation: validation,
			Tournament: link,
			CreatedBy:  caller,
		}
		if err := tx.PutProposal(ctx, p); err != nil {
			return err
		}
		if err := writeRequests(ctx, tx, p); err != nil {
			return err
		}

		if round != nil {
			setTableStatus(round, link.TableIndex, ledger.TablePendingValidation, proposalID, gameID)
			if err := tx.PutRound(ctx, round); err != nil {
				return err
			}
		}

		result = &SubmitResult{GameID: gameID, ProposalID: proposalID, Status: ledger.GamePendingValidation}
		if !comp.ValidationEnabled {
			outcome, err = s.commitTx(ctx, tx, proposalID)
			if err != nil {
				return err
			}
			result.Status = outcome.game.Status
			return nil
		}
		notice = &pendingNotice{
			kind:       ledger.RequestGameCreate,
			proposalID: proposalID,
			gameID:     gameID,
			userIDs:    in.Participants,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncProposalsSubmitted(string(ledger.KindCreate))
	log.Info("Game proposal submitted", "clubID", in.ClubID, "gameID", result.GameID, "proposalID", result.ProposalID, "by", caller)
	s.afterCommit(ctx, outcome)
	s.notify(ctx, notice)
	return result, nil
}

// submissionTable checks that a game may be recorded for the given table
// and returns the table's round.
func submissionTable(ctx context.Context, tx ledger.Tx, submitter *ledger.Member, comp *ledger.Competition, ref TableRef, participants []string) (*ledger.Round, error) {
	round, err := tx.GetRound(ctx, ref.RoundID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, apperr.Missing("Tournament round not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load round: %w", err)
	}
	if round.ClubID != comp.ClubID || round.CompetitionID != comp.ID || round.Status != ledger.RoundActive {
		return nil, apperr.Precondition("Round is not active for this competition.")
	}

	table, ok := round.Tables[ref.TableIndex]
	if !ok {
		return nil, apperr.Missing("Tournament table not found.")
	}
	if table.Status != ledger.TableAwaitingResult && table.Status != ledger.TableDisputed {
		return nil, apperr.Precondition("This table is not accepting result submission (status: %s).", table.Status)
	}

	if len(table.PlayerIDs) != len(participants) {
		return nil, apperr.Precondition("Submitted participants do not match table players.")
	}
	for _, p := range participants {
		if !containsID(table.PlayerIDs, p) {
			return nil, apperr.Precondition("Submitted participants do not match table players.")
		}
	}
	if !containsID(table.PlayerIDs, submitter.UserID) && !submitter.IsAdmin() {
		return nil, apperr.Denied("Only table players or admin can submit round results.")
	}
	return round, nil
}
