package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lucylow/rush-voice-gateway/internal/analysis"
	"github.com/lucylow/rush-voice-gateway/internal/config"
	"github.com/lucylow/rush-voice-gateway/internal/metrics"
	"github.com/lucylow/rush-voice-gateway/internal/transcribe"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(cfg *config.Config, analyzer analysis.Analyzer, stt transcribe.Provider, version string, startTime time.Time, log zerolog.Logger) *Server {
	r := newRouter(cfg, analyzer, stt, version, startTime, log)

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func newRouter(cfg *config.Config, analyzer analysis.Analyzer, stt transcribe.Provider, version string, startTime time.Time, log zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(metrics.InstrumentHandler)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(CORS)

	// Health and metrics — no auth
	health := NewHealthHandler(analyzer != nil, stt != nil, version, startTime)
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Proxy endpoints
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.AuthToken))
		NewAnalysisHandler(analyzer, log).Routes(r)
		NewTranscriptionHandler(stt, cfg.MaxAudioBytes, log).Routes(r)
	})

	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
