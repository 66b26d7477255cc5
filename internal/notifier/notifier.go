package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/riichi-ledger/internal/ledger"
)

// Recipient is a user a notification is delivered to.
type Recipient struct {
	UserID      string
	DisplayName string
	Email       string
}

// Message is the provider-independent payload of a notification.
type Message struct {
	Title string
	Body  string
	// Data carries ids the client needs to open the right screen.
	Data map[string]string
}

// Deeplink returns the in-app path the message points at, if any.
func (m Message) Deeplink() string {
	return m.Data["deeplink"]
}

// Notifier delivers messages to users. Delivery is best effort: callers log
// a returned error and carry on.
type Notifier interface {
	Send(ctx context.Context, recipients []Recipient, msg Message) error
}

// ValidationRequested is the message sent to every voter of a new proposal.
func ValidationRequested(kind ledger.RequestKind, proposalID, gameID string) Message {
	body := "A new game requires your approval."
	if kind == ledger.RequestGameEdit {
		body = "A game edit requires your approval."
	}
	return Message{
		Title: "Validation required",
		Body:  body,
		Data: map[string]string{
			"proposalId": proposalID,
			"gameId":     gameID,
			"type":       string(kind),
			"deeplink":   fmt.Sprintf("/games/%s", gameID),
		},
	}
}

// TableAssigned tells a player which table they sit at in a new round.
func TableAssigned(competitionID, roundID string, roundNumber, tableIndex int, opponents []string) Message {
	body := fmt.Sprintf("Round %d has started. You are at table %d.", roundNumber, tableIndex+1)
	if len(opponents) > 0 {
		body += " Opponents: " + strings.Join(opponents, ", ") + "."
	}
	return Message{
		Title: fmt.Sprintf("Round %d pairings", roundNumber),
		Body:  body,
		Data: map[string]string{
			"competitionId": competitionID,
			"roundId":       roundID,
			"tableIndex":    strconv.Itoa(tableIndex),
			"type":          "round_activated",
			"deeplink":      fmt.Sprintf("/competitions/%s/rounds/%s", competitionID, roundID),
		},
	}
}

// logNotifier only logs. It is used when no provider is configured.
type logNotifier struct{}

// NewLogNotifier returns a Notifier that writes every message to the log.
func NewLogNotifier() Notifier {
	return logNotifier{}
}

func (logNotifier) Send(ctx context.Context, recipients []Recipient, msg Message) error {
	ids := make([]string, 0, len(recipients))
	for _, r := range recipients {
		ids = append(ids, r.UserID)
	}
	log.Info("Notification", "title", msg.Title, "body", msg.Body, "recipients", ids, "deeplink", msg.Deeplink())
	return nil
}
