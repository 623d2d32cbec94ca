package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/bluebar/pkg/api"
	"github.com/urmzd/bluebar/pkg/db"
	"github.com/urmzd/bluebar/pkg/device/schema"
	"github.com/urmzd/bluebar/pkg/engine"
	"github.com/urmzd/bluebar/pkg/facts"

	_ "github.com/urmzd/bluebar/docs"
)

// @title           Bluebar API
// @version         1.0
// @description     Bluetooth accessory discovery, battery telemetry and connection control

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http

func main() {
	// Configure logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Parse flags
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/bluebar/bluebar.db)")
	addrFlag := flag.String("addr", "", "Listen address (default: from the active profile)")
	sourceFlag := flag.String("source", "", "Pairing source: blueutil, bluez or null (default: from the active profile)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	needsBootstrap, err := database.NeedsBootstrap(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to check bootstrap status")
	}
	if needsBootstrap {
		log.Info().Msg("First run detected, bootstrapping database...")
		if err := database.Bootstrap(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap database")
		}
		log.Info().Msg("Database bootstrapped successfully")
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	sourceKind := cfg.PairingSource()
	if *sourceFlag != "" {
		sourceKind = *sourceFlag
	}
	addr := cfg.APIAddress()
	if *addrFlag != "" {
		addr = *addrFlag
	}

	log.Info().
		Str("profile", cfg.Profile.Name).
		Str("pairing_source", sourceKind).
		Dur("poll_interval", cfg.PollInterval()).
		Int("low_battery_threshold", cfg.LowBatteryThreshold()).
		Str("api_address", addr).
		Msg("Configuration loaded")

	// Fall back to the null source when the backend is unavailable
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

	router := api.NewRouter(eng, eng, validator, eng.Registry())
	srv := router.Server(addr)

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().Str("address", addr).Msg("Starting API server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
