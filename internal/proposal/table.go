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

func (s *service) SubmitTableResult(ctx context.Context, callerID string, in TableResultInput) (*SubmitResult, error) {
	return telemetry.Run(ctx, s.tracer, "ProposalService.SubmitTableResult", in.RoundID, func(ctx context.Context) (*SubmitResult, error) {
		caller, err := requireCaller(callerID)
		if err != nil {
			return nil, err
		}
		return s.submitTableResult(ctx, caller, in)
	})
}

func validateTableResultInput(in TableResultInput) error {
	switch {
	case strings.TrimSpace(in.ClubID) == "":
		return apperr.Invalid("clubId: is required")
	case strings.TrimSpace(in.CompetitionID) == "":
		return apperr.Invalid("competitionId: is required")
	case strings.TrimSpace(in.RoundID) == "":
		return apperr.Invalid("roundId: is required")
	case in.TableIndex < 0:
		return apperr.Invalid("tableIndex: must not be negative")
	}
	return nil
}

func (s *service) submitTableResult(ctx context.Context, caller string, in TableResultInput) (*SubmitResult, error) {
	if err := validateTableResultInput(in); err != nil {
		return nil, err
	}

	member, err := s.directory.Membership(ctx, in.ClubID, caller)
	if err != nil {
		return nil, err
	}
	comp, err := s.store.GetCompetition(ctx, in.ClubID, in.CompetitionID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, apperr.Missing("Competition not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}
	if comp.Type != ledger.CompetitionTournament {
		return nil, apperr.Precondition("Table results can only be submitted for tournaments.")
	}

	round, err := s.store.GetRound(ctx, in.RoundID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, apperr.Missing("Round not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load round: %w", err)
	}
	if round.ClubID != in.ClubID || round.CompetitionID != in.CompetitionID || round.Status != ledger.RoundActive {
		return nil, apperr.Precondition("Round is not active for this tournament.")
	}
	table, ok := round.Tables[in.TableIndex]
	if !ok {
		return nil, apperr.Missing("Table not found.")
	}
	if err := acceptsResult(table); err != nil {
		return nil, err
	}
	if !containsID(table.PlayerIDs, caller) && !member.IsAdmin() {
		return nil, apperr.Denied("Only table players or admin can submit this result.")
	}
	if !matchesRoster(in.FinalScores, table.PlayerIDs) {
		return nil, apperr.Precondition("Submitted participants do not match table players.")
	}

	if table.Status != ledger.TablePendingValidation {
		return s.submitCreate(ctx, caller, CreateInput{
			ClubID:         in.ClubID,
			Participants:   table.PlayerIDs,
			FinalScores:    in.FinalScores,
			CompetitionIDs: []string{in.CompetitionID},
			Tournament:     &TableRef{RoundID: round.ID, TableIndex: in.TableIndex},
		})
	}
	return s.resubmit(ctx, caller, comp, in)
}

// matchesRoster reports whether scores name exactly the table's players.
func matchesRoster(scores map[string]int, roster []string) bool {
	if len(scores) != len(roster) {
		return false
	}
	for _, id := range roster {
		if _, ok := scores[id]; !ok {
			return false
		}
	}
	return true
}

func acceptsResult(table ledger.RoundTable) error {
	switch table.Status {
	case ledger.TableAwaitingResult, ledger.TableDisputed, ledger.TablePendingValidation:
		return nil
	}
	return apperr.Precondition("Result cannot be submitted for this table status.")
}

// resubmit replaces the scores of the proposal a table is waiting on and
// restarts its vote.
func (s *service) resubmit(ctx context.Context, caller string, comp *ledger.Competition, in TableResultInput) (*SubmitResult, error) {
	var (
		result  *SubmitResult
		outcome *commitOutcome
		notice  *pendingNotice
	)
	err := s.store.RunInTx(ctx, func(tx ledger.Tx) error {
		round, err := tx.GetRound(ctx, in.RoundID)
		if err != nil {
			return fmt.Errorf("failed to load round: %w", err)
		}
		table, ok := round.Tables[in.TableIndex]
		if !ok {
			return apperr.Missing("Table not found.")
		}
		if table.Status != ledger.TablePendingValidation {
			return apperr.Precondition("Result cannot be submitted for this table status.")
		}
		if table.ProposalID == "" || table.GameID == "" {
			return apperr.Precondition("Missing pending proposal linkage for this table.")
		}

		p, game, err := loadProposal(ctx, tx, table.ProposalID)
		if err != nil || p.GameID != table.GameID {
			if err == nil || apperr.Is(err, apperr.NotFound) {
				return apperr.Missing("Pending proposal or game not found for this table.")
			}
			return err
		}
		if p.Status != ledger.ProposalPending {
			return apperr.Precondition("Pending proposal is no longer editable.")
		}
		if game.Status != ledger.GamePendingValidation {
			return apperr.Precondition("Game is no longer in pending validation status.")
		}

		rules := p.Rules
		if rules.ScoreSum == 0 {
			rules = scoring.Defaults()
		}
		players := table.PlayerIDs
		if err := scoring.ValidateScores(players, in.FinalScores, rules.ScoreSum); err != nil {
			return err
		}

		required := ledger.VoterIDs(p.Validation.RequiredUserIDs, players)
		p.Validation = approval.CreatePending(required)
		if !comp.ValidationEnabled {
			p.Validation = approval.CreateApproved(required)
		}
		p.Proposed = ledger.ProposedVersion{
			Participants:   players,
			FinalScores:    in.FinalScores,
			CompetitionIDs: []string{in.CompetitionID},
		}
		p.Rules = rules
		p.Preview = scoring.ComputeOutcome(players, in.FinalScores, rules)
		if err := tx.PutProposal(ctx, p); err != nil {
			return err
		}

		game.Participants = players
		game.CompetitionIDs = []string{in.CompetitionID}
		if err := tx.PutGame(ctx, game); err != nil {
			return err
		}
		if err := writeRequests(ctx, tx, p); err != nil {
			return err
		}

		result = &SubmitResult{GameID: game.ID, ProposalID: p.ID, Status: ledger.GamePendingValidation, Resubmitted: true}
		if !comp.ValidationEnabled {
			outcome, err = s.commitTx(ctx, tx, p.ID)
			if err != nil {
				return err
			}
			result.Status = outcome.game.Status
			return nil
		}
		notice = &pendingNotice{
			kind:       ledger.RequestGameCreate,
			proposalID: p.ID,
			gameID:     game.ID,
			userIDs:    required,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncProposalsSubmitted(string(ledger.KindCreate))
	log.Info("Table result resubmitted", "roundID", in.RoundID, "tableIndex", in.TableIndex, "proposalID", result.ProposalID, "by", caller)
	s.afterCommit(ctx, outcome)
	s.notify(ctx, notice)
	return result, nil
}
