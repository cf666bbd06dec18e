package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lucylow/rush-voice-gateway/internal/analysis"
	"github.com/rs/zerolog"
)

// AnalysisHandler serves the text intent analysis endpoint.
type AnalysisHandler struct {
	analyzer analysis.Analyzer // nil when MISTRAL_API_KEY is not configured
	log      zerolog.Logger
}

// NewAnalysisHandler creates the handler. Pass a nil analyzer when no
// credential is configured; the handler then answers every request with a
// config error without touching the network.
func NewAnalysisHandler(analyzer analysis.Analyzer, log zerolog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer: analyzer,
		log:      log.With().Str("handler", "analysis").Logger(),
	}
}

// Routes registers the analysis endpoint.
func (h *AnalysisHandler) Routes(r chi.Router) {
	r.Post("/mistral-analysis", h.Analyze)
}

// analysisRequest is the inbound request body.
type analysisRequest struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}

// analysisEnvelope is the success response body.
type analysisEnvelope struct {
	Analysis       analysis.Outcome `json:"analysis"`
	RawResponse    string           `json:"raw_response"`
	Model          string           `json:"model"`
	ProcessingTime int64            `json:"processing_time"`
}

// Analyze handles POST /mistral-analysis.
// Every failure mode answers 500 with {"error": ...}; the upstream reply
// failing to parse as structured JSON is not a failure mode — it degrades
// to the raw-text fallback inside a 200.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.analyzer == nil {
		WriteError(w, http.StatusInternalServerError, "MISTRAL_API_KEY is not configured")
		return
	}

	var req analysisRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusInternalServerError, "invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		WriteError(w, http.StatusInternalServerError, "text is required")
		return
	}

	reply, err := h.analyzer.Analyze(r.Context(), req.Text, req.Context)
	if err != nil {
		h.log.Error().Err(err).Msg("analysis failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if reply.Outcome.Structured == nil {
		h.log.Debug().Msg("model reply not valid JSON, returning raw-text fallback")
	}

	WriteJSON(w, http.StatusOK, analysisEnvelope{
		Analysis:       reply.Outcome,
		RawResponse:    reply.Raw,
		Model:          h.analyzer.Model(),
		ProcessingTime: time.Since(start).Milliseconds(),
	})
}
