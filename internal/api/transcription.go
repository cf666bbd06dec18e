package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lucylow/rush-voice-gateway/internal/metrics"
	"github.com/lucylow/rush-voice-gateway/internal/transcribe"
	"github.com/rs/zerolog"
)

// TranscriptionHandler serves the speech-to-text endpoint.
type TranscriptionHandler struct {
	provider      transcribe.Provider // nil when ELEVENLABS_API_KEY is not configured
	maxAudioBytes int64
	log           zerolog.Logger
}

// NewTranscriptionHandler creates the handler. Pass a nil provider when no
// credential is configured.
func NewTranscriptionHandler(provider transcribe.Provider, maxAudioBytes int64, log zerolog.Logger) *TranscriptionHandler {
	return &TranscriptionHandler{
		provider:      provider,
		maxAudioBytes: maxAudioBytes,
		log:           log.With().Str("handler", "transcription").Logger(),
	}
}

// Routes registers the transcription endpoint.
func (h *TranscriptionHandler) Routes(r chi.Router) {
	r.Post("/voice-to-text", h.Transcribe)
}

// transcriptionEnvelope is the success response body.
type transcriptionEnvelope struct {
	Transcript       string               `json:"transcript"`
	DetectedLanguage string               `json:"detected_language,omitempty"`
	Confidence       float64              `json:"confidence,omitempty"`
	Words            []transcribe.Word    `json:"words,omitempty"`
	Speakers         []transcribe.Speaker `json:"speakers,omitempty"`
	ProcessingTime   int64                `json:"processing_time"`
	ModelUsed        string               `json:"model_used"`
	Success          bool                 `json:"success"`
}

// transcriptionError is the failure response body. processing_time is
// reported on failures too, so callers can always measure latency.
type transcriptionError struct {
	Error          string `json:"error"`
	ProcessingTime int64  `json:"processing_time"`
	Success        bool   `json:"success"`
}

// Transcribe handles POST /voice-to-text.
// Validation order: credential, audio field present, size cap. All three
// reject before any upstream call.
func (h *TranscriptionHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	fail := func(msg string) {
		WriteJSON(w, http.StatusInternalServerError, transcriptionError{
			Error:          msg,
			ProcessingTime: time.Since(start).Milliseconds(),
			Success:        false,
		})
	}

	if h.provider == nil {
		fail("ELEVENLABS_API_KEY is not configured")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		fail("invalid multipart form: " + err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		fail("No audio file provided")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		fail("failed to read audio file")
		return
	}
	if int64(len(audio)) > h.maxAudioBytes {
		fail(fmt.Sprintf("Audio file too large: maximum size is %d MiB", h.maxAudioBytes>>20))
		return
	}
	metrics.AudioBytesReceived.Add(float64(len(audio)))

	treq := transcribe.Request{
		Audio:        audio,
		Filename:     header.Filename,
		Language:     formValue(r, "language", "auto"),
		Model:        formValue(r, "model", h.provider.Model()),
		Diarize:      r.FormValue("enable_diarization") == "true",
		SpeakerCount: formInt(r, "diarization_speakers_count", 2),
	}

	result, err := h.provider.Transcribe(r.Context(), treq)
	if err != nil {
		h.log.Error().Err(err).
			Str("provider", h.provider.Name()).
			Int("audio_bytes", len(audio)).
			Msg("transcription failed")
		fail(err.Error())
		return
	}

	h.log.Debug().
		Str("language", result.Language).
		Int("words", len(result.Words)).
		Int("audio_bytes", len(audio)).
		Msg("transcription complete")

	WriteJSON(w, http.StatusOK, transcriptionEnvelope{
		Transcript:       result.Text,
		DetectedLanguage: result.Language,
		Confidence:       result.Confidence,
		Words:            result.Words,
		Speakers:         result.Speakers,
		ProcessingTime:   time.Since(start).Milliseconds(),
		ModelUsed:        treq.Model,
		Success:          true,
	})
}

// formValue returns a form field or the fallback when absent/empty.
func formValue(r *http.Request, name, fallback string) string {
	if v := r.FormValue(name); v != "" {
		return v
	}
	return fallback
}

// formInt parses an integer form field, returning the fallback when
// absent or malformed.
func formInt(r *http.Request, name string, fallback int) int {
	v := r.FormValue(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
