package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends selectable with STORAGE_TYPE
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	// Discord configuration
	Token    string `env:"DISCORD_TOKEN"`
	AppID    string `env:"APP_ID"`
	GuildID  string `env:"GUILD_ID"`
	Headless bool   `env:"HEADLESS" envDefault:"false"`

	// Storage
	DataDir     string `env:"DATA_DIR" envDefault:"./data"`
	StorageType string `env:"STORAGE_TYPE" envDefault:"sqlite"`

	// Settlement history in Elasticsearch, disabled when URL is empty
	ElasticsearchURL      string `env:"ELASTICSEARCH_URL"`
	ElasticsearchUsername string `env:"ELASTICSEARCH_USERNAME"`
	ElasticsearchPassword string `env:"ELASTICSEARCH_PASSWORD"`
	IndexPrefix           string `env:"ES_INDEX_PREFIX" envDefault:"tucocasino"`

	// Economy
	StartingBalance int64         `env:"STARTING_BALANCE" envDefault:"1000"`
	MinBet          int64         `env:"MIN_BET" envDefault:"10"`
	MaxBet          int64         `env:"MAX_BET" envDefault:"1000000"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"2m"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"15s"`
	BetCooldown     time.Duration `env:"BET_COOLDOWN" envDefault:"3s"`
	CollectCooldown time.Duration `env:"COLLECT_COOLDOWN" envDefault:"1m"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development" or "production"
}

// Load reads the configuration from .env and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Only return error if file exists but couldn't be loaded
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &cfg, nil
}

// Validate checks if all required configuration is present and sane
func (c *Config) Validate() error {
	if !c.Headless && c.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	switch c.StorageType {
	case StorageMemory, StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("STORAGE_TYPE must be one of memory, file, sqlite; got %q", c.StorageType)
	}
	if c.StartingBalance < 0 {
		return fmt.Errorf("STARTING_BALANCE cannot be negative")
	}
	if c.MinBet <= 0 || c.MaxBet < c.MinBet {
		return fmt.Errorf("bet limits invalid: MIN_BET=%d MAX_BET=%d", c.MinBet, c.MaxBet)
	}
	if c.SessionTTL <= 0 || c.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_TTL and SWEEP_INTERVAL must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// SQLitePath is where the sqlite store lives
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "tucocasino.db")
}

// FileStorePath is where the JSON file store lives
func (c *Config) FileStorePath() string {
	return filepath.Join(c.DataDir, "store.json")
}
