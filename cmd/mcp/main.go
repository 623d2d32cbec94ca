package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/bluebar/pkg/db"
	"github.com/urmzd/bluebar/pkg/device/schema"
	"github.com/urmzd/bluebar/pkg/engine"
	"github.com/urmzd/bluebar/pkg/facts"
	bluebarmcp "github.com/urmzd/bluebar/pkg/mcp"
)

func main() {
	// Logging must go to stderr, stdout is the MCP transport
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Parse flags
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/bluebar/bluebar.db)")
	sourceFlag := flag.String("source", "", "Pairing source: blueutil, bluez or null (default: from the active profile)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open database
	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	log.Info().Str("path", database.Path()).Msg("Database opened")

	if err := database.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Bootstrap if needed (first run)
	if err := database.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap database")
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	sourceKind := cfg.PairingSource()
	if *sourceFlag != "" {
		sourceKind = *sourceFlag
	}

	runner := facts.NewExecRunner(0)
	pairing, closePairing, err := engine.OpenPairingSource(sourceKind, runner)
	if err != nil {
		log.Warn().Err(err).Str("source", sourceKind).Msg("Pairing source unavailable, using null source")
	}
	defer closePairing()

	validator := schema.NewValidator()
	eng := engine.New(engine.Options{
		Pairing:             pairing,
		Runner:              runner,
		Overrides:           database.Overrides(),
		Validator:           validator,
		PollInterval:        cfg.PollInterval(),
		LowBatteryThreshold: cfg.LowBatteryThreshold(),
		HIDFallback:         cfg.HIDFallback(),
	})
	eng.Start(ctx)
	defer eng.Close()

	mcpServer := bluebarmcp.NewServer(eng, validator)

	log.Info().Str("pairing_source", sourceKind).Msg("Starting MCP server on stdio")

	if err := mcpServer.ServeStdio(); err != nil {
		log.Error().Err(err).Msg("MCP server failed")
	}
}
