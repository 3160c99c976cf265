package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/p-blackswan/foreman/internal/config"
	"github.com/p-blackswan/foreman/internal/daemon"
	"github.com/p-blackswan/foreman/internal/health"
	"github.com/p-blackswan/foreman/internal/metrics"
	"github.com/p-blackswan/foreman/internal/mgmt"
	"github.com/p-blackswan/foreman/internal/state"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("FOREMAN_ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("state_dir", cfg.StateDir).
		Dur("poll_interval", cfg.PollInterval).
		Msg("starting foreman daemon")

	// State store
	store, err := state.New(cfg.StateDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open state directory")
	}

	// Health checker
	checker := health.NewChecker(logger)
	checker.Register("state_dir", func(ctx context.Context) health.Status {
		probe := filepath.Join(cfg.StateDir, ".probe")
		if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
			return health.StatusDown
		}
		os.Remove(probe)
		return health.StatusOK
	})

	m := metrics.New()

	// Core daemon
	d := daemon.New(cfg, store, daemon.NoOpExecutor{}, m, logger)

	checker.Register("daemon", func(ctx context.Context) health.Status {
		if d.State() != daemon.StateRunning {
			return health.StatusDown
		}
		return health.StatusOK
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start daemon")
	}

	// Control API server
	handlers := mgmt.NewHandlers(d, checker, logger)
	server := mgmt.NewServer(mgmt.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		AuthConfig: mgmt.AuthConfig{
			Mode:   cfg.AuthMode,
			APIKey: cfg.APIKey,
		},
		RateLimit: mgmt.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins: cfg.CORSOrigins,
	}, handlers, m, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("control API server error")
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")

	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("control API shutdown error")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := d.Stop(stopCtx); err != nil {
		logger.Error().Err(err).Msg("daemon stop error")
	}

	wg.Wait()
	logger.Info().Msg("foreman daemon stopped")
}
