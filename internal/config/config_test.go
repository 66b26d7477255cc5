package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mauv0809/riichi-ledger/internal/config"
	"github.com/mauv0809/riichi-ledger/internal/pairing"
	"github.com/mauv0809/riichi-ledger/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFromEnv(t *testing.T) {
	cfg, err := config.FromEnv(lookupFrom(map[string]string{
		"DB_NAME":          "ledger.db",
		"PORT":             "8080",
		"SLACK_BOT_TOKEN":  "xoxb-1",
		"SLACK_CHANNEL_ID": "C1",
		"SLACK_DRY_RUN":    "true",
		"PAIRING_ATTEMPTS": "30",
	}))
	require.NoError(t, err)

	assert.Equal(t, "ledger.db", cfg.DBName)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.Slack.Enabled())
	assert.True(t, cfg.Slack.DryRun)
	assert.Equal(t, 30, cfg.PairingAttempts)
	assert.Empty(t, cfg.ProjectID)
	assert.Nil(t, cfg.DefaultRules)
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := config.FromEnv(lookupFrom(map[string]string{"DB_NAME": "ledger.db", "PORT": "8080"}))
	require.NoError(t, err)
	assert.Equal(t, pairing.DefaultAttempts, cfg.PairingAttempts)
	assert.False(t, cfg.Slack.Enabled())
	assert.Empty(t, cfg.JWTSecret)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing port", env: map[string]string{"DB_NAME": "ledger.db"}},
		{name: "missing db", env: map[string]string{"PORT": "8080"}},
		{name: "bad attempts", env: map[string]string{"DB_NAME": "ledger.db", "PORT": "8080", "PAIRING_ATTEMPTS": "many"}},
		{name: "zero attempts", env: map[string]string{"DB_NAME": "ledger.db", "PORT": "8080", "PAIRING_ATTEMPTS": "0"}},
		{name: "missing rules file", env: map[string]string{"DB_NAME": "ledger.db", "PORT": "8080", "DEFAULT_RULES_FILE": "/does/not/exist.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.FromEnv(lookupFrom(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoadRules(t *testing.T) {
	path := writeFile(t, `
uma: [30, 10, -10, -30]
oka: 20
useRedFives: true
redFivesCount:
  man: 1
  pin: 1
  sou: 1
`)
	rules, err := config.LoadRules(path)
	require.NoError(t, err)

	want := scoring.Defaults()
	want.Uma = [4]float64{30, 10, -10, -30}
	want.Oka = 20
	want.UseRedFives = true
	want.RedFivesCount = &scoring.RedFivesCount{Man: 1, Pin: 1, Sou: 1}
	assert.Equal(t, &want, rules)
}

func TestLoadRules_Invalid(t *testing.T) {
	_, err := config.LoadRules(writeFile(t, "rounding: nearest_1000\n"))
	assert.Error(t, err)

	_, err = config.LoadRules(writeFile(t, "uma: [not, a, list\n"))
	assert.Error(t, err)
}

func TestFromEnv_RulesFile(t *testing.T) {
	path := writeFile(t, "scoreSum: 120000\nstartingPoints: 30000\n")
	cfg, err := config.FromEnv(lookupFrom(map[string]string{"DB_NAME": "x", "PORT": "1", "DEFAULT_RULES_FILE": path}))
	require.NoError(t, err)
	require.NotNil(t, cfg.DefaultRules)
	assert.Equal(t, 120000, cfg.DefaultRules.ScoreSum)
	assert.Equal(t, 30000, cfg.DefaultRules.StartingPoints)
}
