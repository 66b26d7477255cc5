package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/riichi-ledger/internal/pairing"
	"github.com/mauv0809/riichi-ledger/internal/scoring"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	cfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		log.Fatalf("Error: %s", err)
	}
	return cfg
}

// FromEnv builds a Config from lookup. PORT and DB_NAME are required.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	var missing error
	required := func(key string) string {
		value, ok := lookup(key)
		if !ok && missing == nil {
			missing = fmt.Errorf("required environment variable %s is not set", key)
		}
		return value
	}
	optional := func(key string) string {
		value, _ := lookup(key)
		return value
	}

	cfg := Config{
		DBName: required("DB_NAME"),
		Port:   required("PORT"),
		Turso: TursoConfig{
			PrimaryURL: optional("TURSO_PRIMARY_URL"),
			AuthToken:  optional("TURSO_AUTH_TOKEN"),
		},
		Slack: SlackConfig{
			Token:     optional("SLACK_BOT_TOKEN"),
			ChannelID: optional("SLACK_CHANNEL_ID"),
			DryRun:    optional("SLACK_DRY_RUN") == "true",
		},
		ProjectID:       optional("GCP_PROJECT"),
		AppBaseURL:      optional("APP_BASE_URL"),
		JWTSecret:       optional("JWT_SECRET"),
		PairingAttempts: pairing.DefaultAttempts,
	}
	if missing != nil {
		return Config{}, missing
	}

	if v := optional("PAIRING_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("PAIRING_ATTEMPTS must be a positive integer, got %q", v)
		}
		cfg.PairingAttempts = n
	}

	if path := optional("DEFAULT_RULES_FILE"); path != "" {
		rules, err := LoadRules(path)
		if err != nil {
			return Config{}, err
		}
		cfg.DefaultRules = rules
	}
	return cfg, nil
}

// LoadRules reads a YAML rule set. Fields the file leaves out keep the
// values of scoring.Defaults.
func LoadRules(path string) (*scoring.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	rules := scoring.Defaults()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules in %s: %w", path, err)
	}
	log.Info("Loaded default rules", "file", path, "scoreSum", rules.ScoreSum, "uma", rules.Uma)
	return &rules, nil
}
