package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/hungrylogs/app/config"
	"github.com/m3rciful/hungrylogs/core/bootstrap"
	coreconfig "github.com/m3rciful/hungrylogs/core/config"
	coredatabase "github.com/m3rciful/hungrylogs/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Config:  coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}},
		Storage: config.StorageConfig{DataDir: filepath.Join(dir, "data")},
		AI:      config.AIConfig{APIKey: "sk-test"},
		Journal: config.JournalConfig{Dir: filepath.Join(dir, "journal")},
	}
	require.NoError(t, config.Normalize(cfg))
	return cfg
}

func TestWireCSV(t *testing.T) {
	cfg := baseConfig(t)
	rt, err := Wire(cfg, bootstrap.Options{LoggerInit: noLogger})
	require.NoError(t, err)
	defer rt.Close()

	assert.FileExists(t, filepath.Join(cfg.Storage.DataDir, "users.csv"))
	assert.FileExists(t, filepath.Join(cfg.Journal.Dir, "stats.csv"))

	opts, err := rt.TelegramRunOptions()
	require.NoError(t, err)
	assert.NotEmpty(t, opts.Routes)
	assert.Same(t, cfg.CoreConfig(), opts.Config)
}

func TestWireSQLite(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Storage.Driver = config.StorageSQLite
	cfg.Database = coredatabase.Config{
		Path:          filepath.Join(t.TempDir(), "bot.db"),
		MigrationsDir: filepath.Join("..", "migrations"),
	}
	require.NoError(t, config.Normalize(cfg))

	rt, err := Wire(cfg, bootstrap.Options{LoggerInit: noLogger})
	require.NoError(t, err)
	require.NoError(t, rt.Close())
}

func TestBootstrapRejectsForeignConfig(t *testing.T) {
	_, err := Bootstrap(foreign{})
	assert.Error(t, err)
}

type foreign struct{}

func (foreign) CoreConfig() *coreconfig.Config { return &coreconfig.Config{} }
