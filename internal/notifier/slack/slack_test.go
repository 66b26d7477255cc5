package slack

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/mauv0809/riichi-ledger/internal/ledger"
	"github.com/mauv0809/riichi-ledger/internal/metrics"
	"github.com/mauv0809/riichi-ledger/internal/notifier"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	mu                     sync.Mutex
	channels               []string
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
	users                  map[string]string
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.mu.Lock()
	m.channels = append(m.channels, channelID)
	m.mu.Unlock()
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return channelID, "123456789.12345", nil
}

func (m *mockSlackAPI) GetUserByEmailContext(ctx context.Context, email string) (*slackapi.User, error) {
	if id, ok := m.users[email]; ok {
		return &slackapi.User{ID: id}, nil
	}
	return nil, errors.New("users_not_found")
}

func TestSendMessage_DryRun(t *testing.T) {
	metrics := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	notifier := NewNotifierWithAPI(nil, "C123", "", true, metrics)

	message := slackapi.NewBlockMessage()
	_, _, err := notifier.sendMessage(context.Background(), "C123", message, true)
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.NotifSent())
}

func TestSendMessage_Success(t *testing.T) {
	api := &mockSlackAPI{}
	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", "", false, metrics)

	message := slackapi.NewBlockMessage(slackapi.NewSectionBlock(slackapi.NewTextBlockObject("plain_text", "hello", false, false), nil, nil))
	_, _, err := notifier.sendMessage(context.Background(), "C123", message, false)

	require.NoError(t, err)
	assert.Equal(t, []string{"C123"}, api.channels)
	assert.Equal(t, 1, metrics.NotifSent())
	assert.Equal(t, 0, metrics.NotifFailed())
}

func TestSendMessage_Failure(t *testing.T) {
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			return "", "", expectedErr
		},
	}
	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", "", false, metrics)

	_, _, err := notifier.sendMessage(context.Background(), "C123", slackapi.NewBlockMessage(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 0, metrics.NotifSent())
	assert.Equal(t, 1, metrics.NotifFailed())
}

func TestSend_DirectMessageOrChannel(t *testing.T) {
	api := &mockSlackAPI{users: map[string]string{"a@example.com": "U_A"}}
	metrics := metrics.NewMock()
	n := NewNotifierWithAPI(api, "C123", "https://ledger.example.com", false, metrics)

	recipients := []notifier.Recipient{
		{UserID: "a", Email: "a@example.com"},
		{UserID: "b", DisplayName: "Bea"},
		{UserID: "c", Email: "unknown@example.com"},
	}
	err := n.Send(context.Background(), recipients, notifier.ValidationRequested(ledger.RequestGameCreate, "p1", "g1"))
	require.NoError(t, err)

	channels := append([]string(nil), api.channels...)
	sort.Strings(channels)
	assert.Equal(t, []string{"C123", "C123", "U_A"}, channels)
	assert.Equal(t, 3, metrics.NotifSent())
}

func TestSend_PartialFailureStillDeliversOthers(t *testing.T) {
	api := &mockSlackAPI{
		users: map[string]string{"bad@example.com": "U_BAD"},
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			if channelID == "U_BAD" {
				return "", "", errors.New("channel_not_found")
			}
			return channelID, "ts", nil
		},
	}
	metrics := metrics.NewMock()
	n := NewNotifierWithAPI(api, "C123", "", false, metrics)

	err := n.Send(context.Background(), []notifier.Recipient{
		{UserID: "bad", Email: "bad@example.com"},
		{UserID: "ok"},
	}, notifier.Message{Title: "Validation required", Body: "hi"})

	require.Error(t, err)
	assert.Equal(t, 1, metrics.NotifSent())
	assert.Equal(t, 1, metrics.NotifFailed())
}

func TestFormatMessage(t *testing.T) {
	n := NewNotifierWithAPI(nil, "C123", "https://ledger.example.com", true, metrics.NewMock())
	msg := notifier.ValidationRequested(ledger.RequestGameEdit, "p1", "g1")

	channelMsg := n.formatMessage(notifier.Recipient{UserID: "u1", DisplayName: "Yuki"}, msg, false)
	require.Len(t, channelMsg.Blocks.BlockSet, 3)
	section, ok := channelMsg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "*Yuki*: A game edit requires your approval.", section.Text.Text)

	footer, ok := channelMsg.Blocks.BlockSet[2].(*slackapi.ContextBlock)
	require.True(t, ok)
	link, ok := footer.ContextElements.Elements[0].(*slackapi.TextBlockObject)
	require.True(t, ok)
	assert.Equal(t, "<https://ledger.example.com/games/g1|Open in the app>", link.Text)

	dm := n.formatMessage(notifier.Recipient{UserID: "u1"}, msg, true)
	section, ok = dm.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "A game edit requires your approval.", section.Text.Text)
	assert.Equal(t, "Validation required: A game edit requires your approval.", dm.Text)
}
