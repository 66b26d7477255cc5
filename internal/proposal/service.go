package proposal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/riichi-ledger/internal/apperr"
	"github.com/mauv0809/riichi-ledger/internal/approval"
	"github.com/mauv0809/riichi-ledger/internal/club"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
	"github.com/mauv0809/riichi-ledger/internal/metrics"
	"github.com/mauv0809/riichi-ledger/internal/notifier"
	"github.com/mauv0809/riichi-ledger/internal/pairing"
	"github.com/mauv0809/riichi-ledger/internal/pubsub"
	"github.com/mauv0809/riichi-ledger/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
)

const notifyTimeout = 15 * time.Second

var _ Service = (*service)(nil)

// New creates a proposal Service. events may be nil, in which case no
// domain events are published. A nil notifier logs notifications instead.
func New(store ledger.Store, directory club.Directory, n notifier.Notifier, events pubsub.PubSubClient, m metrics.Metrics, tracer trace.Tracer) Service {
	if n == nil {
		n = notifier.NewLogNotifier()
	}
	if tracer == nil {
		tracer = telemetry.Tracer()
	}
	return &service{
		store:     store,
		directory: directory,
		notifier:  n,
		events:    events,
		metrics:   m,
		tracer:    tracer,
		newID:     uuid.NewString,
	}
}

// requireCaller returns the normalized caller id.
func requireCaller(callerID string) (string, error) {
	id := approval.NormalizeUserID(callerID)
	if id == "" {
		return "", apperr.New(apperr.Unauthenticated, "Authentication is required.")
	}
	return id, nil
}

// normalizeID accepts a bare id or a document path and returns the id.
func normalizeID(value, kind string) (string, error) {
	id := approval.NormalizeUserID(value)
	if id == "" {
		return "", apperr.Invalid("%s id is required.", kind)
	}
	return id, nil
}

func validateParticipants(participants []string) error {
	if len(participants) != pairing.TableSize {
		return apperr.Invalid("participants: must contain exactly %d players", pairing.TableSize)
	}
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if strings.TrimSpace(p) == "" {
			return apperr.Invalid("participants: ids must not be empty")
		}
		if seen[p] {
			return apperr.Invalid("Participants must be unique.")
		}
		seen[p] = true
	}
	return nil
}

func validateCompetitionIDs(ids []string) error {
	if len(ids) != 1 || strings.TrimSpace(ids[0]) == "" {
		return apperr.Invalid("competitionIds: must contain exactly 1 competition")
	}
	return nil
}

func (s *service) requireMembers(ctx context.Context, clubID string, userIDs []string) error {
	missing, err := s.directory.MissingMembers(ctx, clubID, userIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return apperr.Invalid("All participants must be members of the club.")
	}
	return nil
}

// activeCompetition loads a competition a game is being submitted to.
func activeCompetition(ctx context.Context, tx ledger.Tx, clubID, competitionID string) (*ledger.Competition, error) {
	comp, err := tx.GetCompetition(ctx, clubID, competitionID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, apperr.Missing("Competition not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}
	if comp.Status != ledger.CompetitionActive {
		return nil, apperr.Precondition("Competition must be active.")
	}
	return comp, nil
}

// loadProposal reads a proposal and the game it belongs to.
func loadProposal(ctx context.Context, tx ledger.Tx, proposalID string) (*ledger.Proposal, *ledger.Game, error) {
	p, err := tx.GetProposal(ctx, proposalID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, nil, apperr.Missing("Proposal not found.")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load proposal: %w", err)
	}
	game, err := tx.GetGame(ctx, p.GameID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, nil, apperr.Missing("Game not found.")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load game: %w", err)
	}
	return p, game, nil
}

// writeRequests mirrors every voter's status on p into their inbox.
func writeRequests(ctx context.Context, tx ledger.Tx, p *ledger.Proposal) error {
	for _, userID := range p.Validation.RequiredUserIDs {
		status := p.Validation.UserApprovals[userID]
		if status == "" {
			status = approval.StatusPending
		}
		if err := setRequestStatus(ctx, tx, p, userID, status); err != nil {
			return err
		}
	}
	return nil
}

func setRequestStatus(ctx context.Context, tx ledger.Tx, p *ledger.Proposal, userID string, status approval.Status) error {
	req, err := tx.GetValidationRequest(ctx, ledger.ValidationRequestID(p.ID, userID))
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		req = &ledger.ValidationRequest{
			ID:         ledger.ValidationRequestID(p.ID, userID),
			ClubID:     p.ClubID,
			UserID:     userID,
			ProposalID: p.ID,
			GameID:     p.GameID,
		}
	case err != nil:
		return err
	}
	req.Kind = p.Kind.RequestKind()
	req.Status = status
	return tx.PutValidationRequest(ctx, req)
}

// setTableStatus updates one table of round. It reports false when the
// round has no such table.
func setTableStatus(round *ledger.Round, index int, status ledger.TableStatus, proposalID, gameID string) bool {
	table, ok := round.Tables[index]
	if !ok {
		return false
	}
	table.Status = status
	if proposalID != "" {
		table.ProposalID = proposalID
	}
	if gameID != "" {
		table.GameID = gameID
	}
	round.Tables[index] = table
	return true
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// notify tells voters about a proposal awaiting them. It runs after the
// write has committed and never fails the operation.
func (s *service) notify(ctx context.Context, n *pendingNotice) {
	if n == nil || len(n.userIDs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	recipients := make([]notifier.Recipient, 0, len(n.userIDs))
	for _, id := range n.userIDs {
		r := notifier.Recipient{UserID: id}
		if u, err := s.store.GetUser(ctx, id); err == nil {
			r.DisplayName = u.DisplayName
			r.Email = u.Email
		}
		recipients = append(recipients, r)
	}

	msg := notifier.ValidationRequested(n.kind, n.proposalID, n.gameID)
	if err := s.notifier.Send(ctx, recipients, msg); err != nil {
		log.Warn("Validation notification failed", "proposalID", n.proposalID, "gameID", n.gameID, "error", err)
	}
}
