package proposal

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/riichi-ledger/internal/apperr"
	"github.com/mauv0809/riichi-ledger/internal/approval"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
	"github.com/mauv0809/riichi-ledger/internal/pubsub"
	"github.com/mauv0809/riichi-ledger/internal/telemetry"
)

// requirePending refuses votes on a proposal that has been decided.
func requirePending(p *ledger.Proposal) error {
	switch p.Status {
	case ledger.ProposalPending:
		return nil
	case ledger.ProposalRejected:
		return apperr.Precondition("Proposal already rejected.")
	default:
		return apperr.Precondition("Proposal is no longer pending validation (status: %s).", p.Status)
	}
}

// Approve records the caller's approval. The approval that completes
// unanimity commits the proposal in the same transaction.
func (s *service) Approve(ctx context.Context, callerID, proposalID string) (*DecisionResult, error) {
	return telemetry.Run(ctx, s.tracer, "ProposalService.Approve", proposalID, func(ctx context.Context) (*DecisionResult, error) {
		caller, err := requireCaller(callerID)
		if err != nil {
			return nil, err
		}
		id, err := normalizeID(proposalID, "Proposal")
		if err != nil {
			return nil, err
		}

		var (
			result  *DecisionResult
			outcome *commitOutcome
		)
		err = s.store.RunInTx(ctx, func(tx ledger.Tx) error {
			p, game, err := loadProposal(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := requirePending(p); err != nil {
				return err
			}

			view, err := approval.ApplyDecision(p.Validation, caller, approval.Approve)
			if err != nil {
				return err
			}
			p.Validation = view.Record
			if err := tx.PutProposal(ctx, p); err != nil {
				return err
			}
			if err := setRequestStatus(ctx, tx, p, caller, approval.StatusApproved); err != nil {
				return err
			}

			if !view.UnanimityReached {
				result = &DecisionResult{ProposalStatus: p.Status, GameStatus: game.Status}
				return nil
			}
			outcome, err = s.commitTx(ctx, tx, id)
			if err != nil {
				return err
			}
			result = outcome.result()
			return nil
		})
		if err != nil {
			return nil, err
		}

		s.metrics.IncDecisions(string(approval.Approve))
		log.Info("Proposal approved", "proposalID", id, "by", caller, "proposalStatus", result.ProposalStatus)
		s.afterCommit(ctx, outcome)
		return result, nil
	})
}

// Reject records the caller's rejection. The proposal is rejected and its
// game disputed; a fresh submission is needed to record a result.
func (s *service) Reject(ctx context.Context, callerID, proposalID, reason string) (*DecisionResult, error) {
	return telemetry.Run(ctx, s.tracer, "ProposalService.Reject", proposalID, func(ctx context.Context) (*DecisionResult, error) {
		caller, err := requireCaller(callerID)
		if err != nil {
			return nil, err
		}
		id, err := normalizeID(proposalID, "Proposal")
		if err != nil {
			return nil, err
		}
		if utf8.RuneCountInString(reason) > maxReasonLength {
			return nil, apperr.Invalid("reason: must be at most %d characters", maxReasonLength)
		}

		var rejected *ledger.Proposal
		err = s.store.RunInTx(ctx, func(tx ledger.Tx) error {
			p, game, err := loadProposal(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := requirePending(p); err != nil {
				return err
			}

			view, err := approval.ApplyDecision(p.Validation, caller, approval.Reject)
			if err != nil {
				return err
			}
			p.Validation = view.Record
			p.Status = ledger.ProposalRejected
			p.RejectionReason = reason
			if err := tx.PutProposal(ctx, p); err != nil {
				return err
			}

			if err := game.TransitionTo(ledger.GameDisputed); err != nil {
				return err
			}
			game.PendingAction = nil
			if err := tx.PutGame(ctx, game); err != nil {
				return err
			}

			if t := p.Tournament; t != nil {
				round, err := tx.GetRound(ctx, t.RoundID)
				switch {
				case errors.Is(err, ledger.ErrNotFound):
					log.Warn("Rejected proposal points at a missing round", "proposalID", p.ID, "roundID", t.RoundID)
				case err != nil:
					return fmt.Errorf("failed to load round: %w", err)
				case setTableStatus(round, t.TableIndex, ledger.TableDisputed, "", ""):
					if err := tx.PutRound(ctx, round); err != nil {
						return err
					}
				}
			}

			if err := setRequestStatus(ctx, tx, p, caller, approval.StatusRejected); err != nil {
				return err
			}
			rejected = p
			return nil
		})
		if err != nil {
			return nil, err
		}

		s.metrics.IncDecisions(string(approval.Reject))
		log.Info("Proposal rejected", "proposalID", id, "gameID", rejected.GameID, "by", caller)
		pubsub.Publish(ctx, s.events, s.metrics, pubsub.EventProposalRejected, pubsub.ProposalRejected{
			ClubID:     rejected.ClubID,
			GameID:     rejected.GameID,
			ProposalID: rejected.ID,
			RejectedBy: caller,
			Reason:     reason,
			RejectedAt: time.Now().UTC(),
		})
		return &DecisionResult{ProposalStatus: ledger.ProposalRejected, GameStatus: ledger.GameDisputed}, nil
	})
}
