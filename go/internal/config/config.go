// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mcdev12/questline/go/internal/dbconfig"
	"github.com/mcdev12/questline/go/internal/outbox"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	PublisherJetStream = "jetstream"
	PublisherLog       = "log"
)

// Server configures the API server.
type Server struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	StoreDriver     string        `env:"STORE_DRIVER" envDefault:"postgres"`
	CatalogPath     string        `env:"CATALOG_PATH"`
	EmitEvents      bool          `env:"OUTBOX_ENABLED" envDefault:"true"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	DB              dbconfig.Config
}

// LoadServer parses and validates the server configuration.
func LoadServer() (*Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse server env: %w", err)
	}
	switch cfg.StoreDriver {
	case StoreMemory, StorePostgres:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return &cfg, nil
}

// Relay configures the outbox relay.
type Relay struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	Publisher string `env:"OUTBOX_PUBLISHER" envDefault:"jetstream"`
	DB        dbconfig.Config
	Listener  outbox.ListenerConfig
	JetStream outbox.JetStreamConfig
}

// LoadRelay parses and validates the relay configuration.
func LoadRelay() (*Relay, error) {
	var cfg Relay
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse relay env: %w", err)
	}
	switch cfg.Publisher {
	case PublisherJetStream, PublisherLog:
	default:
		return nil, fmt.Errorf("unknown OUTBOX_PUBLISHER %q", cfg.Publisher)
	}
	if cfg.Listener.BatchSize <= 0 {
		return nil, fmt.Errorf("OUTBOX_BATCH_SIZE must be positive")
	}
	cfg.Listener.DatabaseURL = cfg.DB.DSN()
	return &cfg, nil
}

// SetupLogging points the global zerolog logger at a console writer on
// stdout with the given level.
func SetupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(lvl)
	return nil
}
