package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string `env:"ROOMLOG_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr string `env:"ROOMLOG_GRPC_ADDR" envDefault:":9090"` // empty disables the kiosk service

	Env string `env:"ROOMLOG_ENV" envDefault:"dev"` // "dev" | "prod"

	// Storage
	Storage string `env:"ROOMLOG_STORAGE" envDefault:"sqlite"` // "sqlite" | "json" | "memory"
	DBPath  string `env:"ROOMLOG_DB_PATH" envDefault:"./data/roomlog.db"`
	DataDir string `env:"ROOMLOG_DATA_DIR" envDefault:"./data"`

	// Timestamps are wall-clock minutes in this zone.
	Timezone string `env:"ROOMLOG_TIMEZONE" envDefault:"Local"`

	// Optional regular expression overriding the built-in card shape.
	CardPattern   string `env:"ROOMLOG_CARD_PATTERN"`
	SequenceScope string `env:"ROOMLOG_SEQUENCE_SCOPE" envDefault:"all"` // "all" | "day"

	RosterFile    string   `env:"ROOMLOG_ROSTER_FILE"`
	DefaultPeople []string `env:"ROOMLOG_DEFAULT_PEOPLE" envSeparator:"," envDefault:"Alice,Bob,Charlie,Diana"`

	LogLevel string `env:"ROOMLOG_LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file, then the environment.  Unknown values for
// the enumerated settings fall back to their defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}

	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	switch cfg.Storage {
	case "sqlite", "json", "memory":
	default:
		cfg.Storage = "sqlite"
	}

	cfg.SequenceScope = strings.ToLower(strings.TrimSpace(cfg.SequenceScope))
	if cfg.SequenceScope != "day" {
		cfg.SequenceScope = "all"
	}

	cfg.DefaultPeople = trimAll(cfg.DefaultPeople)

	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	if _, err := cfg.CardRegexp(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid ROOMLOG_TIMEZONE %q: %w", tz, err)
	}
	return loc, nil
}

// CardRegexp compiles CardPattern, anchored to the whole token.  It returns
// nil when no pattern is configured.
func (c Config) CardRegexp() (*regexp.Regexp, error) {
	p := strings.TrimSpace(c.CardPattern)
	if p == "" {
		return nil, nil
	}
	re, err := regexp.Compile("^(?:" + p + ")$")
	if err != nil {
		return nil, fmt.Errorf("invalid ROOMLOG_CARD_PATTERN: %w", err)
	}
	return re, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
