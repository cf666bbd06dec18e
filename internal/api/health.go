package api

import (
	"net/http"
	"time"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

// HealthHandler reports liveness and which upstream vendors are configured.
// The gateway holds no connections or state, so "configured" is the only
// check that means anything here.
type HealthHandler struct {
	analysisConfigured      bool
	transcriptionConfigured bool
	version                 string
	startTime               time.Time
}

func NewHealthHandler(analysisConfigured, transcriptionConfigured bool, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		analysisConfigured:      analysisConfigured,
		transcriptionConfigured: transcriptionConfigured,
		version:                 version,
		startTime:               startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"analysis":      configuredStatus(h.analysisConfigured),
		"transcription": configuredStatus(h.transcriptionConfigured),
	}

	status := "healthy"
	if !h.analysisConfigured || !h.transcriptionConfigured {
		status = "degraded"
	}

	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	})
}

func configuredStatus(ok bool) string {
	if ok {
		return "ok"
	}
	return "not_configured"
}
