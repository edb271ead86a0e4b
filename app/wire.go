// Package app assembles hungrylogs from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/m3rciful/hungrylogs/app/ai"
	"github.com/m3rciful/hungrylogs/app/bot"
	"github.com/m3rciful/hungrylogs/app/config"
	"github.com/m3rciful/hungrylogs/app/journal"
	"github.com/m3rciful/hungrylogs/app/storage"
	"github.com/m3rciful/hungrylogs/app/storage/csvstore"
	"github.com/m3rciful/hungrylogs/app/storage/sqlstore"
	"github.com/m3rciful/hungrylogs/core/bootstrap"
	corecmd "github.com/m3rciful/hungrylogs/core/cmd"
	coredatabase "github.com/m3rciful/hungrylogs/core/database"
	"github.com/m3rciful/hungrylogs/core/logger"
)

// LoadConfig adapts config.Load to the runner.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	return config.Load(path)
}

// Runtime is the running bot plus the infrastructure it owns.
type Runtime struct {
	*bot.App
	infra *bootstrap.Result
}

// Close stops the store first, then the database under it.
func (r *Runtime) Close() error {
	return errors.Join(r.App.Close(), r.infra.Close())
}

// Bootstrap initialises logging, storage and the model client and returns
// the bot.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	rt, err := Wire(cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// Wire is Bootstrap with overridable bootstrap hooks.
func Wire(cfg *config.Config, opts bootstrap.Options) (*Runtime, error) {
	opts.Config = cfg.CoreConfig()
	if cfg.UsesDatabase() {
		db := cfg.Database
		opts.Database = &db
	}
	infra, err := bootstrap.Run(opts)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()

	store, err := openStore(cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	var rec journal.Recorder = journal.Nop{}
	if dir := strings.TrimSpace(cfg.Journal.Dir); dir != "" {
		j, err := journal.Open(dir, cfg.Journal.EventsFile, cfg.Journal.ModelFile)
		if err != nil {
			_ = infra.Close()
			return nil, fmt.Errorf("app: journal: %w", err)
		}
		rec = j
	}

	client, err := ai.NewClient(ai.Options{
		APIKey:      cfg.AI.APIKey,
		BaseURL:     cfg.AI.BaseURL,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout(),
	})
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	application, err := bot.New(bot.Deps{
		Config:     cfg,
		Store:      store,
		Classifier: client,
		Deriver:    client,
		Advisor:    client,
		Journal:    rec,
	})
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	logger.Info(ctx, logger.CompApp, "bootstrap",
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("journal", cfg.Journal.Dir != ""),
		slog.String("model", cfg.AI.Model),
	)
	return &Runtime{App: application, infra: infra}, nil
}

func openStore(cfg *config.Config, infra *bootstrap.Result) (storage.Store, error) {
	if !cfg.UsesDatabase() {
		dir := filepath.Clean(cfg.Storage.DataDir)
		s, err := csvstore.Open(dir, cfg.Storage.UsersFile, cfg.Storage.MealsFile)
		if err != nil {
			return nil, fmt.Errorf("app: csv storage: %w", err)
		}
		return s, nil
	}
	if infra.DB == nil {
		return nil, fmt.Errorf("app: %s storage needs a database", cfg.Storage.Driver)
	}
	logger.Info(context.Background(), logger.CompDB, "storage.sql",
		slog.String("driver", cfg.Database.Driver),
		slog.Bool("sqlite", cfg.Database.Driver == coredatabase.DriverSQLite),
	)
	return sqlstore.New(infra.DB), nil
}
