// Package config is the hungrylogs configuration: the core bot settings plus
// storage, database, language model and journal sections.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/hungrylogs/core/config"
	coredatabase "github.com/m3rciful/hungrylogs/core/database"
)

// Storage drivers.
const (
	StorageCSV      = "csv"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// StorageConfig selects the backend of profiles and meals.
// The CSV files live in DataDir.
type StorageConfig struct {
	Driver    string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR"`
	UsersFile string `yaml:"users_file"`
	MealsFile string `yaml:"meals_file"`
}

// AIConfig configures the OpenAI compatible chat endpoint.
type AIConfig struct {
	APIKey         string   `yaml:"api_key" envconfig:"OPENAI_API_KEY"`
	BaseURL        string   `yaml:"base_url" envconfig:"OPENAI_BASE_URL"`
	Model          string   `yaml:"model" envconfig:"OPENAI_MODEL"`
	Temperature    *float64 `yaml:"temperature"`
	TimeoutSeconds int      `yaml:"timeout_seconds" envconfig:"OPENAI_TIMEOUT_SECONDS"`
}

// Timeout is TimeoutSeconds as a duration.
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// JournalConfig places the user-event and model-interaction CSV files.
// An empty Dir disables the journal.
type JournalConfig struct {
	Dir        string `yaml:"dir" envconfig:"JOURNAL_DIR"`
	EventsFile string `yaml:"events_file"`
	ModelFile  string `yaml:"model_file"`
}

// Config aggregates everything the bot reads at startup.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Storage  StorageConfig       `yaml:"storage"`
	Database coredatabase.Config `yaml:"database"`
	AI       AIConfig            `yaml:"ai"`
	Journal  JournalConfig       `yaml:"journal"`
}

// CoreConfig satisfies the runner's config carrier.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// UsesDatabase reports whether storage goes through SQL.
func (c *Config) UsesDatabase() bool { return c.Storage.Driver != StorageCSV }

// Load reads path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	s := &cfg.Storage
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	switch s.Driver {
	case "", StorageCSV:
		s.Driver = StorageCSV
	case "postgresql", StoragePostgres:
		s.Driver = StoragePostgres
		cfg.Database.Driver = coredatabase.DriverPostgres
	case StorageSQLite, coredatabase.DriverSQLite:
		s.Driver = StorageSQLite
		cfg.Database.Driver = coredatabase.DriverSQLite
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: csv, postgres, sqlite", s.Driver)
	}
	if strings.TrimSpace(s.DataDir) == "" {
		s.DataDir = "data"
	}
	if s.UsersFile == "" {
		s.UsersFile = "users.csv"
	}
	if s.MealsFile == "" {
		s.MealsFile = "meals.csv"
	}
	if cfg.UsesDatabase() {
		if err := cfg.Database.Normalize(); err != nil {
			return err
		}
	}

	if strings.TrimSpace(cfg.AI.APIKey) == "" {
		return fmt.Errorf("ai.api_key is required")
	}
	if cfg.AI.Temperature != nil && (*cfg.AI.Temperature < 0 || *cfg.AI.Temperature > 2) {
		return fmt.Errorf("ai.temperature must be within [0, 2]")
	}
	if cfg.AI.TimeoutSeconds < 0 {
		return fmt.Errorf("ai.timeout_seconds must be >= 0")
	}

	if cfg.Journal.EventsFile == "" {
		cfg.Journal.EventsFile = "stats.csv"
	}
	if cfg.Journal.ModelFile == "" {
		cfg.Journal.ModelFile = "model_logs.csv"
	}
	return nil
}
