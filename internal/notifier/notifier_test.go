package notifier

import (
	"context"
	"testing"

	"github.com/mauv0809/riichi-ledger/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationRequested(t *testing.T) {
	tests := []struct {
		name     string
		kind     ledger.RequestKind
		wantBody string
	}{
		{"create", ledger.RequestGameCreate, "A new game requires your approval."},
		{"edit", ledger.RequestGameEdit, "A game edit requires your approval."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ValidationRequested(tt.kind, "p1", "g1")
			assert.Equal(t, "Validation required", msg.Title)
			assert.Equal(t, tt.wantBody, msg.Body)
			assert.Equal(t, "/games/g1", msg.Deeplink())
			assert.Equal(t, "p1", msg.Data["proposalId"])
			assert.Equal(t, "g1", msg.Data["gameId"])
			assert.Equal(t, string(tt.kind), msg.Data["type"])
		})
	}
}

func TestTableAssigned(t *testing.T) {
	msg := TableAssigned("cup", "cup_round_02", 2, 0, []string{"Ben", "Cho", "Dai"})
	assert.Equal(t, "Round 2 pairings", msg.Title)
	assert.Equal(t, "Round 2 has started. You are at table 1. Opponents: Ben, Cho, Dai.", msg.Body)
	assert.Equal(t, "/competitions/cup/rounds/cup_round_02", msg.Deeplink())
	assert.Equal(t, "0", msg.Data["tableIndex"])

	msg = TableAssigned("cup", "cup_round_01", 1, 3, nil)
	assert.Equal(t, "Round 1 has started. You are at table 4.", msg.Body)
}

func TestMock_RecordsCalls(t *testing.T) {
	m := NewMock()
	recipients := []Recipient{{UserID: "a"}, {UserID: "b"}}

	require.NoError(t, m.Send(context.Background(), recipients, Message{Title: "hi"}))
	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"a", "b"}, RecipientIDs(calls[0].Recipients))

	m.Reset()
	assert.Empty(t, m.Calls())
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier()
	assert.NoError(t, n.Send(context.Background(), []Recipient{{UserID: "a"}}, ValidationRequested(ledger.RequestGameCreate, "p", "g")))
}
