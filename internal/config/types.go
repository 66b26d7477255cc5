package config

import "github.com/mauv0809/riichi-ledger/internal/scoring"

// Config holds all configuration for the application.
type Config struct {
	DBName string
	Port   string
	Turso  TursoConfig
	Slack  SlackConfig
	// ProjectID is the GCP project events are published to. Events are
	// disabled when it is empty.
	ProjectID string
	// AppBaseURL prefixes deeplinks in notifications.
	AppBaseURL string
	// JWTSecret verifies bearer tokens. When empty the X-User-ID header is
	// trusted, which is only meant for local development.
	JWTSecret       string
	PairingAttempts int
	// DefaultRules replaces the built-in rules for clubs without their own.
	DefaultRules *scoring.RuleSet
}

type SlackConfig struct {
	Token     string
	ChannelID string
	DryRun    bool
}

// Enabled reports whether notifications go to Slack rather than the log.
func (c SlackConfig) Enabled() bool {
	return c.Token != "" && c.ChannelID != ""
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
