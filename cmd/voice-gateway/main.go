package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucylow/rush-voice-gateway/internal/analysis"
	"github.com/lucylow/rush-voice-gateway/internal/api"
	"github.com/lucylow/rush-voice-gateway/internal/config"
	"github.com/lucylow/rush-voice-gateway/internal/transcribe"
	"github.com/rs/zerolog"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "http listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level")
	flag.Parse()

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("voice-gateway starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Upstream clients. A missing credential leaves the client nil; the
	// handlers answer those requests with a config error instead of
	// refusing to start, so the other endpoint keeps working.
	var analyzer analysis.Analyzer
	if cfg.MistralAPIKey != "" {
		analyzer = analysis.NewMistralClient(cfg.MistralAPIKey, cfg.MistralModel, cfg.MistralTimeout)
	} else {
		log.Warn().Msg("MISTRAL_API_KEY not set, /mistral-analysis disabled")
	}

	var stt transcribe.Provider
	if cfg.ElevenLabsAPIKey != "" {
		stt = transcribe.NewElevenLabsClient(cfg.ElevenLabsAPIKey, cfg.ElevenLabsTimeout)
	} else {
		log.Warn().Msg("ELEVENLABS_API_KEY not set, /voice-to-text disabled")
	}

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, analyzer, stt, version, startTime, httpLog)

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("voice-gateway stopped")
}
