package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/riichi-ledger/internal/notifier"
	"github.com/mauv0809/riichi-ledger/internal/pubsub"
)

// RoundActivatedPushHandler receives round-activated events from a Pub/Sub
// push subscription and tells every player where they sit.
func (s *Server) RoundActivatedPushHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		log.Debug("Received round activated message", "body", string(bodyBytes))

		var envelope pushEnvelope
		if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
			log.Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		rawData, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}
		if s.PubSub == nil {
			http.Error(w, "Events are not configured", http.StatusServiceUnavailable)
			return
		}

		var event pubsub.RoundActivated
		if err := s.PubSub.ProcessMessage(rawData, &event); err != nil {
			http.Error(w, "Invalid event payload", http.StatusBadRequest)
			return
		}
		s.notifyTables(r.Context(), event)
		w.Write([]byte("OK"))
	}
}

// notifyTables sends each player their table and opponents. Failures are
// logged; the round is already active.
func (s *Server) notifyTables(ctx context.Context, event pubsub.RoundActivated) {
	for tableIndex, players := range event.Tables {
		seated := make([]notifier.Recipient, 0, len(players))
		for _, id := range players {
			seated = append(seated, s.recipient(ctx, id))
		}
		for i, player := range seated {
			opponents := make([]string, 0, len(seated)-1)
			for j, other := range seated {
				if j != i {
					opponents = append(opponents, other.DisplayName)
				}
			}
			msg := notifier.TableAssigned(event.CompetitionID, event.RoundID, event.RoundNumber, tableIndex, opponents)
			if err := s.Notifier.Send(ctx, []notifier.Recipient{player}, msg); err != nil {
				log.Warn("Failed to notify table assignment", "roundID", event.RoundID, "userID", player.UserID, "error", err)
			}
		}
	}
	log.Info("Round pairings announced", "roundID", event.RoundID, "tables", len(event.Tables))
}

// recipient looks up a user's contact details, falling back to the bare id.
func (s *Server) recipient(ctx context.Context, userID string) notifier.Recipient {
	rec := notifier.Recipient{UserID: userID, DisplayName: userID}
	u, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		log.Debug("No profile for notification recipient", "userID", userID, "error", err)
		return rec
	}
	if u.DisplayName != "" {
		rec.DisplayName = u.DisplayName
	}
	rec.Email = u.Email
	return rec
}
