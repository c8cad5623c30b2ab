// Package notes wires configuration for the notes command.
package notes

import (
	"context"
	"flag"
	"fmt"
	"time"

	platformcmd "github.com/louisbranch/notekeep/internal/platform/cmd"
	"github.com/louisbranch/notekeep/internal/platform/config"
	platformgrpc "github.com/louisbranch/notekeep/internal/platform/grpc"
	server "github.com/louisbranch/notekeep/internal/services/notes/app"
	"github.com/louisbranch/notekeep/internal/services/notes/token"
)

const healthCheckTimeout = 3 * time.Second

// Config holds notes command configuration.
type Config struct {
	HTTPAddr   string `env:"NOTEKEEP_HTTP_ADDR" envDefault:":3000"`
	HealthPort int    `env:"NOTEKEEP_HEALTH_PORT" envDefault:"3001"`
	DBPath     string `env:"NOTEKEEP_DB_PATH" envDefault:"data/notes.db"`
	BcryptCost int    `env:"NOTEKEEP_BCRYPT_COST" envDefault:"10"`
	MaxConns   int    `env:"NOTEKEEP_HTTP_MAX_CONNS" envDefault:"0"`

	// OTelShutdownTimeout bounds the span flush on exit.
	OTelShutdownTimeout time.Duration `env:"NOTEKEEP_OTEL_SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// HealthCheck probes a running server's health port and exits.
	HealthCheck bool
	// Token is loaded from NOTEKEEP_JWT_* unless HealthCheck is set.
	Token token.Config
}

// EnvLookup returns the value for a key when present.
type EnvLookup func(string) (string, bool)

// ParseConfig merges environment defaults and flags into a Config. A missing
// signing secret is an error.
func ParseConfig(fs *flag.FlagSet, args []string, lookup EnvLookup) (Config, error) {
	var cfg Config
	if err := config.ParseEnvWithLookup(&cfg, lookup); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The notes HTTP server address")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The gRPC health server port (negative disables)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The SQLite database path")
	fs.BoolVar(&cfg.HealthCheck, "healthcheck", false, "Probe the local health port and exit")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.HealthCheck {
		return cfg, nil
	}

	tokenConfig, err := token.LoadConfigFromEnv(lookup, nil)
	if err != nil {
		return Config{}, err
	}
	cfg.Token = tokenConfig
	return cfg, nil
}

// Run starts the notes server, or probes one when HealthCheck is set.
func Run(ctx context.Context, cfg Config) error {
	if cfg.HealthCheck {
		return probe(ctx, cfg.HealthPort)
	}
	options := platformcmd.RunOptions{ShutdownTimeout: cfg.OTelShutdownTimeout}
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceNotes, options, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			HTTPAddr:   cfg.HTTPAddr,
			HealthPort: cfg.HealthPort,
			DBPath:     cfg.DBPath,
			BcryptCost: cfg.BcryptCost,
			MaxConns:   cfg.MaxConns,
			Token:      cfg.Token,
		})
	})
}

func probe(ctx context.Context, port int) error {
	if port <= 0 {
		return fmt.Errorf("health port is disabled")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	probeCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return platformgrpc.Probe(probeCtx, fmt.Sprintf("localhost:%d", port), server.HealthServiceName)
}
