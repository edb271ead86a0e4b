package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesEnvOverlay(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("BOT_TOKEN", "env-token")
	path := writeConfig(t, `
telegram:
  token: yaml-token
  admin_id: 42
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.Token)
	assert.Equal(t, int64(42), cfg.Telegram.AdminID)
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, 5, cfg.Logging.MaxSizeMB)
	assert.Equal(t, 2, cfg.Logging.ErrorsMaxBackups)
}

func TestLoadReadsExplicitEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "bot.env")
	require.NoError(t, os.WriteFile(envPath, []byte("TELEGRAM_ADMIN_ID=7\n"), 0o600))
	t.Setenv("ENV_FILE", envPath)
	t.Setenv("TELEGRAM_ADMIN_ID", "")
	os.Unsetenv("TELEGRAM_ADMIN_ID")

	path := writeConfig(t, "telegram:\n  token: abc\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Telegram.AdminID)
}

func TestNormalizeRejectsBadValues(t *testing.T) {
	cases := map[string]Config{
		"missing token": {},
		"bad run mode":  {Telegram: TelegramConfig{Token: "t", RunMode: "carrier-pigeon"}},
		"webhook without url": {
			Telegram: TelegramConfig{Token: "t", RunMode: RunModeWebhook},
		},
		"bad exclude": {
			Telegram:  TelegramConfig{Token: "t"},
			RateLimit: RateLimitConfig{ExcludeUpdates: []string{"sticker"}},
		},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := cfg
			assert.Error(t, Normalize(&cfg))
		})
	}
}

func TestNormalizeAcceptsPollingAlias(t *testing.T) {
	cfg := Config{
		Telegram:  TelegramConfig{Token: "t", RunMode: " Polling "},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{" Callback "}},
	}
	require.NoError(t, Normalize(&cfg))
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, []string{UpdateCallback}, cfg.RateLimit.ExcludeUpdates)
}
