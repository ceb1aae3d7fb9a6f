// Package sprintathon parses bot command flags and launches the bot runtime.
package sprintathon

import (
	"context"
	"flag"
	"fmt"
	"log"

	entrypoint "github.com/sprintathon/sprintathon/internal/platform/cmd"
	platformgrpc "github.com/sprintathon/sprintathon/internal/platform/grpc"
	"github.com/sprintathon/sprintathon/internal/platform/logging"
	"github.com/sprintathon/sprintathon/internal/platform/otel"
	"github.com/sprintathon/sprintathon/internal/platform/timeouts"
	sprintathonapp "github.com/sprintathon/sprintathon/internal/services/sprintathon/app"
)

// Version is the build version, set with -ldflags "-X ...sprintathon.Version=...".
var Version = "1.0.3"

// LogPrefix marks every log line written by the bot.
const LogPrefix = "[SPRINTATHON] "

// Config holds bot command configuration. Environment variables carry the
// SPRINTATHON_ prefix.
type Config struct {
	Token         string `env:"DISCORD_TOKEN"`
	DBPath        string `env:"DB_PATH" envDefault:"data/sprintathon.db"`
	Debug         bool   `env:"DEBUG_MODE"`
	DebugGuild    string `env:"DEBUG_GUILD"`
	Port          int    `env:"PORT" envDefault:"8095"`
	Prefix        string `env:"COMMAND_PREFIX" envDefault:"!"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
	OTelEndpoint  string `env:"OTEL_ENDPOINT"`
	OTelEnabled   bool   `env:"OTEL_ENABLED" envDefault:"true"`

	// HealthCheck probes a running bot instead of starting one.
	HealthCheck bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The sprintathon SQLite database path")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Run with short debug timings in the debug guild only")
	fs.StringVar(&cfg.DebugGuild, "debug-guild", cfg.DebugGuild, "Guild name reserved for the debug deployment")
	fs.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "Chat command prefix")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Optional rotating log file path")
	fs.BoolVar(&cfg.HealthCheck, "healthcheck", false, "Probe the local health endpoint and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the bot runtime.
func Run(ctx context.Context, cfg Config) error {
	closer := logging.Setup(logging.Config{
		Prefix:     LogPrefix,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer func() {
		if err := closer.Close(); err != nil {
			log.Printf("close log file: %v", err)
		}
	}()

	options := entrypoint.RunOptions{
		ShutdownTimeout: timeouts.Shutdown,
		Telemetry: otel.Config{
			Endpoint: cfg.OTelEndpoint,
			Disabled: !cfg.OTelEnabled,
		},
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSprintathon, options, func(ctx context.Context) error {
		return sprintathonapp.Run(ctx, sprintathonapp.RuntimeConfig{
			Port:       cfg.Port,
			DBPath:     cfg.DBPath,
			Token:      cfg.Token,
			Prefix:     cfg.Prefix,
			Debug:      cfg.Debug,
			DebugGuild: cfg.DebugGuild,
			Version:    Version,
		})
	})
}

// HealthCheck reports whether the bot on the local port has finished
// resuming sessions.
func HealthCheck(ctx context.Context, port int) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.HealthProbe)
	defer cancel()
	return platformgrpc.Probe(ctx, fmt.Sprintf("127.0.0.1:%d", port), sprintathonapp.HealthService)
}
