/*
Package config loads server and CLI settings.

SOURCES (later wins):
  1. Defaults
  2. YAML file (CASHFLOW_CONFIG or the path given to Load)
  3. .env file, loaded into the process environment
  4. CASHFLOW_* environment variables
  5. Command-line flags, applied by the caller

ENVIRONMENT:
  CASHFLOW_CONFIG            YAML file path
  CASHFLOW_PORT              HTTP port
  CASHFLOW_DB_PATH           SQLite path, ":memory:" allowed
  CASHFLOW_LOG_LEVEL         debug | info | warn | error
  CASHFLOW_LOG_FORMAT        text | json
  CASHFLOW_ALLOWED_ORIGINS   Comma separated CORS origins
  CASHFLOW_CURRENCY          ISO 4217 code used for display
  CASHFLOW_PROJECTION_MONTHS Default projection window
  CASHFLOW_SHUTDOWN_TIMEOUT  Go duration, e.g. 30s
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/warp/cashflow-engine/ledger"
	"github.com/warp/cashflow-engine/logging"
)

const envPrefix = "CASHFLOW_"

type Config struct {
	Port             int           `yaml:"port"`
	DBPath           string        `yaml:"db_path"`
	LogLevel         string        `yaml:"log_level"`
	LogFormat        string        `yaml:"log_format"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
	Currency         string        `yaml:"currency"`
	ProjectionMonths int           `yaml:"projection_months"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Port:             8080,
		DBPath:           "cashflow.db",
		LogLevel:         "info",
		LogFormat:        logging.FormatText,
		AllowedOrigins:   []string{"*"},
		Currency:         "EUR",
		ProjectionMonths: ledger.ProjectionMonths,
		ShutdownTimeout:  30 * time.Second,
	}
}

// Load builds a Config from defaults, the YAML file at path (or
// CASHFLOW_CONFIG when path is empty), .env and the environment.
// A missing .env file is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error

	if v, ok := lookup("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sPORT: %w", envPrefix, err))
		}
		c.Port = port
	}
	if v, ok := lookup("DB_PATH"); ok {
		c.DBPath = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		c.LogFormat = v
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitCSV(v)
	}
	if v, ok := lookup("CURRENCY"); ok {
		c.Currency = strings.ToUpper(v)
	}
	if v, ok := lookup("PROJECTION_MONTHS"); ok {
		months, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sPROJECTION_MONTHS: %w", envPrefix, err))
		}
		c.ProjectionMonths = months
	}
	if v, ok := lookup("SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSHUTDOWN_TIMEOUT: %w", envPrefix, err))
		}
		c.ShutdownTimeout = d
	}

	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("database path cannot be empty"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if !logging.ValidFormat(c.LogFormat) {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be text or json", c.LogFormat))
	}
	if len(c.Currency) != 3 {
		errs = append(errs, fmt.Errorf("invalid currency %q: must be an ISO 4217 code", c.Currency))
	}
	if c.ProjectionMonths < 1 || c.ProjectionMonths > ledger.MaxProjectionMonths {
		errs = append(errs, fmt.Errorf("invalid projection months %d: must be between 1 and %d", c.ProjectionMonths, ledger.MaxProjectionMonths))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	return errors.Join(errs...)
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
