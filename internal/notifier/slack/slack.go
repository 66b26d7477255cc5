package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/riichi-ledger/internal/metrics"
	"github.com/mauv0809/riichi-ledger/internal/notifier"
	"github.com/slack-go/slack"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	GetUserByEmailContext(ctx context.Context, email string) (*slack.User, error)
}

var _ notifier.Notifier = &Notifier{}

const (
	// Slack allows roughly one message per second per channel, with short bursts.
	messagesPerSecond = 1
	messageBurst      = 5
	maxConcurrent     = 4
)

// Notifier delivers notifications through Slack. Recipients whose email
// matches a Slack account get a direct message; everyone else is mentioned
// by name in the configured channel.
type Notifier struct {
	api       slackClient
	channelID string
	baseURL   string
	dryRun    bool
	limiter   *rate.Limiter
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID, baseURL string, dryRun bool, metrics metrics.Metrics) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID, baseURL, dryRun, metrics)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID, baseURL string, dryRun bool, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		baseURL:   baseURL,
		dryRun:    dryRun,
		limiter:   rate.NewLimiter(rate.Limit(messagesPerSecond), messageBurst),
		metrics:   metrics,
	}
}

// Send posts msg to every recipient. A failed delivery does not stop the
// others; the first error is returned.
func (s *Notifier) Send(ctx context.Context, recipients []notifier.Recipient, msg notifier.Message) error {
	var g errgroup.Group
	g.SetLimit(maxConcurrent)
	for _, r := range recipients {
		g.Go(func() error {
			if err := s.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}
			channelID, direct := s.resolveChannel(ctx, r)
			_, _, err := s.sendMessage(ctx, channelID, s.formatMessage(r, msg, direct), s.dryRun)
			return err
		})
	}
	return g.Wait()
}

// resolveChannel returns the DM channel of r when r's email is known to
// Slack, and the shared channel otherwise.
func (s *Notifier) resolveChannel(ctx context.Context, r notifier.Recipient) (string, bool) {
	if r.Email == "" || s.dryRun {
		return s.channelID, false
	}
	user, err := s.api.GetUserByEmailContext(ctx, r.Email)
	if err != nil || user == nil {
		log.Debug("No Slack user for recipient, using channel", "userID", r.UserID, "error", err)
		return s.channelID, false
	}
	return user.ID, true
}

func (s *Notifier) sendMessage(ctx context.Context, channelID string, message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	respChannel, timestamp, err := s.api.PostMessageContext(
		ctx,
		channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionText(message.Text, false),
	)
	if err != nil {
		s.metrics.IncNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncNotifSent()
	log.Info("Successfully sent Slack message", "channel", respChannel, "timestamp", timestamp)
	return respChannel, timestamp, nil
}

// formatMessage builds the Block Kit message for one recipient.
func (s *Notifier) formatMessage(r notifier.Recipient, msg notifier.Message, direct bool) slack.Message {
	body := msg.Body
	if !direct {
		name := r.DisplayName
		if name == "" {
			name = r.UserID
		}
		body = fmt.Sprintf("*%s*: %s", name, msg.Body)
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", msg.Title, true, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", body, false, false), nil, nil),
	}
	if link := msg.Deeplink(); link != "" {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("<%s%s|Open in the app>", s.baseURL, link), false, false),
		))
	}

	message := slack.NewBlockMessage(blocks...)
	message.Text = fmt.Sprintf("%s: %s", msg.Title, msg.Body)
	return message
}
