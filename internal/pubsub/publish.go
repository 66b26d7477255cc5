package pubsub

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/riichi-ledger/internal/metrics"
)

// Publish sends an event if c is configured. A failed publish is logged and
// never returned; the state change it describes is already committed.
func Publish(ctx context.Context, c PubSubClient, m metrics.Metrics, topic EventType, data any) {
	if c == nil {
		return
	}
	if err := c.SendMessage(ctx, topic, data); err != nil {
		log.Warn("Failed to publish event", "topic", topic, "error", err)
		return
	}
	if m != nil {
		m.IncEventsPublished(string(topic))
	}
}
