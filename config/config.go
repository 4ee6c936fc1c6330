/*
Package config loads server configuration from the environment.

PURPOSE:
  Reads CARDLEDGER_* variables with envconfig after loading an optional
  .env file. Command-line flags in cmd/server override the result.

VARIABLES:
  CARDLEDGER_APP_NAME            service name stamped on every log line
  CARDLEDGER_DATA_DIR            directory holding the database ("~" expands)
  CARDLEDGER_DB_FILE             database file name inside DATA_DIR
  CARDLEDGER_LISTEN_ADDR         HTTP listen address, loopback by default
  CARDLEDGER_LOG_LEVEL           debug | info | warn | error
  CARDLEDGER_LOG_FORMAT          json | console
  CARDLEDGER_RECONCILE_ENABLED   run the reconciliation scheduler
  CARDLEDGER_RECONCILE_INTERVAL  time between scheduled runs
  CARDLEDGER_ALLOWED_ORIGINS     comma separated CORS origins
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "CARDLEDGER"

// MemoryDB selects a private in-memory database.
const MemoryDB = ":memory:"

type Config struct {
	AppName           string        `envconfig:"APP_NAME" default:"Gift Card Manager"`
	DataDir           string        `envconfig:"DATA_DIR" default:"~/.gift_card_manager"`
	DBFile            string        `envconfig:"DB_FILE" default:"gift_card_manager.sqlite3"`
	ListenAddr        string        `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8080"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat         string        `envconfig:"LOG_FORMAT" default:"json"`
	ReconcileEnabled  bool          `envconfig:"RECONCILE_ENABLED" default:"true"`
	ReconcileInterval time.Duration `envconfig:"RECONCILE_INTERVAL" default:"1h"`
	AllowedOrigins    []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:8080"`
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ReconcileEnabled && c.ReconcileInterval <= 0 {
		return fmt.Errorf("%s_RECONCILE_INTERVAL must be positive, got %s", EnvPrefix, c.ReconcileInterval)
	}
	if strings.TrimSpace(c.DBFile) == "" {
		return fmt.Errorf("%s_DB_FILE is required", EnvPrefix)
	}
	return nil
}

// DatabasePath returns the database location, creating DataDir if needed.
// ":memory:" is returned untouched.
func (c *Config) DatabasePath() (string, error) {
	if c.DBFile == MemoryDB {
		return MemoryDB, nil
	}
	dir, err := expandHome(c.DataDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	return filepath.Join(dir, c.DBFile), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
