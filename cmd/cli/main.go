package main

import (
	"context"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/openbusser/cmd/cli/internal/commands"
	"github.com/wolfeidau/openbusser/internal/config"
	"github.com/wolfeidau/openbusser/internal/logger"
	"github.com/wolfeidau/openbusser/internal/telemetry"
)

var (
	version = "dev"
	cli     struct {
		Server    string          `help:"OpenBusser server URL" default:"http://localhost:3000" env:"OPENBUSSER_SERVER"`
		Timeout   time.Duration   `help:"Timeout for each API request" default:"30s" env:"OPENBUSSER_TIMEOUT"`
		DataDir   string          `help:"Session state directory (default ~/.openbusser)" env:"OPENBUSSER_DATA_DIR"`
		CacheDir  string          `help:"Directory for cached API responses (default in memory)" env:"OPENBUSSER_CACHE_DIR"`
		Ephemeral bool            `help:"Keep the session in memory for this run only" env:"OPENBUSSER_EPHEMERAL"`
		Debug     bool            `help:"Enable debug mode." env:"OPENBUSSER_DEBUG"`
		Tracing   bool            `help:"Export traces and metrics over OTLP" env:"OPENBUSSER_TRACING"`
		Config    kong.ConfigFlag `help:"Load flag values from a YAML file"`
		Version   kong.VersionFlag

		Detect    commands.DetectCmd    `cmd:"" help:"Register a session and assign the first reachable busser"`
		Dashboard commands.DashboardCmd `cmd:"" help:"Monitor bussers, sessions and invitations"`
		Bussers   commands.BussersCmd   `cmd:"" help:"Inspect bussers"`
		Session   commands.SessionCmd   `cmd:"" help:"Manage the local session"`
		Invite    commands.InviteCmd    `cmd:"" help:"Manage invitations"`
	}
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("openbusser"),
		kong.Description("Detect, assign and share OpenBusser devices."),
		kong.Vars{
			"version": version,
		},
		kong.Configuration(config.YAMLLoader, config.DefaultPath),
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug)

	shutdown := setupTelemetry(ctx, cli.Tracing)

	err := cmd.Run(&commands.Globals{
		Server:    cli.Server,
		Timeout:   cli.Timeout,
		DataDir:   cli.DataDir,
		CacheDir:  cli.CacheDir,
		Ephemeral: cli.Ephemeral,
		Debug:     cli.Debug,
		Version:   version,
	})

	shutdown()
	cmd.FatalIfErrorf(err)
}

// setupTelemetry returns a function flushing pending telemetry, a no-op when
// tracing is disabled.
func setupTelemetry(ctx context.Context, enabled bool) func() {
	if !enabled {
		return func() {}
	}

	log.Debug().Msg("Tracing is enabled")
	shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
		ServiceName: "openbusser-cli",
		Version:     version,
		SampleRatio: 1,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}
}
