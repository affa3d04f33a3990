package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-capgame/internal/app"
	"github.com/coreman2200/funtimes-capgame/internal/config"
)

func main() {
	// ---- Flags (config.yaml holds the tuning; these override it) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		driver     = flag.String("driver", "", "strip driver: nrz | apa102 | nrzled | sim")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no strip output)")
		selfTest   = flag.Bool("selftest", false, "run the strip self test before the menu")
		level      = flag.String("log-level", "", "zerolog level (trace, debug, info, warn, error)")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Load config.yaml (optional) ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults")
		cfg = config.Default()
	}
	if *driver != "" {
		cfg.Strip.Driver = *driver
	}
	if *simOnly {
		cfg.Strip.Driver = config.DriverSim
	}
	if *selfTest {
		cfg.SelfTest = true
	}
	if *level != "" {
		cfg.LogLevel = *level
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		log.Warn().Err(err).Str("level", cfg.LogLevel).Msg("bad log level; using info")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(lvl)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("config rejected")
	}

	// ---- Host drivers (gpio, spidev) ----
	if _, err := host.Init(); err != nil {
		log.Warn().Err(err).Msg("host init failed; hardware will fall back to simulation")
	}

	core, err := app.InitCore(cfg, app.HW{}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}
	defer func() {
		if err := core.Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}()

	// ---- Graceful shutdown ----
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("driver", cfg.Strip.Driver).Msg("running")
	if err := core.Run(ctx); err != nil {
		log.Error().Err(err).Msg("stopped with error")
	}
	log.Info().Msg("shutting down")
}
