package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/lucylow/rush-voice-gateway/internal/metrics"
)

const elevenLabsSTTEndpoint = "https://api.elevenlabs.io/v1/speech-to-text"

// DefaultModel is the multilingual model used when a request names none.
const DefaultModel = "eleven_multilingual_v2"

// ElevenLabsClient calls the ElevenLabs Speech-to-Text API.
// Implements the Provider interface.
type ElevenLabsClient struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// elevenlabsResponse is the JSON response from the ElevenLabs STT API.
type elevenlabsResponse struct {
	LanguageCode        string           `json:"language_code"`
	LanguageProbability float64          `json:"language_probability"`
	Text                string           `json:"text"`
	Words               []elevenlabsWord `json:"words"`
}

// elevenlabsWord is a word or spacing entry from ElevenLabs.
type elevenlabsWord struct {
	Text        string  `json:"text"`
	Type        string  `json:"type"` // "word" or "spacing"
	StartTimeMs float64 `json:"start_time_ms"`
	EndTimeMs   float64 `json:"end_time_ms"`
	Confidence  float64 `json:"confidence"`
	SpeakerID   string  `json:"speaker_id"`
}

// NewElevenLabsClient creates a new ElevenLabs STT client.
func NewElevenLabsClient(apiKey string, timeout time.Duration) *ElevenLabsClient {
	return &ElevenLabsClient{
		apiKey:  apiKey,
		model:   DefaultModel,
		baseURL: elevenLabsSTTEndpoint,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name.
func (el *ElevenLabsClient) Name() string { return "elevenlabs" }

// Model returns the default model identifier.
func (el *ElevenLabsClient) Model() string { return el.model }

// Transcribe sends an audio payload to the ElevenLabs STT API and returns
// the result. One POST, no retries.
func (el *ElevenLabsClient) Transcribe(ctx context.Context, treq Request) (*Result, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := treq.Filename
	if filename == "" {
		filename = "audio"
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(treq.Audio); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}

	model := treq.Model
	if model == "" {
		model = el.model
	}
	w.WriteField("model_id", model)

	// "auto" means vendor-side detection: the field is omitted entirely,
	// never sent literally.
	if treq.Language != "" && treq.Language != "auto" {
		w.WriteField("language_code", treq.Language)
	}

	// Always request word-level timestamps
	w.WriteField("timestamps_granularity", "word")

	if treq.Diarize {
		w.WriteField("diarize", "true")
		speakers := treq.SpeakerCount
		if speakers <= 0 {
			speakers = 2
		}
		w.WriteField("num_speakers", strconv.Itoa(speakers))
	}

	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, el.baseURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("xi-api-key", el.apiKey)

	start := time.Now()
	resp, err := el.client.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("elevenlabs", "error").Inc()
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream("elevenlabs", resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s", statusMessage(resp.StatusCode))
	}

	var result elevenlabsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// Convert to common Word type, filtering out spacing entries
	var words []Word
	for _, ew := range result.Words {
		if ew.Type != "word" {
			continue
		}
		words = append(words, Word{
			Word:       ew.Text,
			Start:      ew.StartTimeMs / 1000.0,
			End:        ew.EndTimeMs / 1000.0,
			Confidence: ew.Confidence,
		})
	}

	var speakers []Speaker
	if treq.Diarize {
		speakers = groupBySpeaker(result.Words)
	}

	return &Result{
		Text:       result.Text,
		Language:   result.LanguageCode,
		Confidence: result.LanguageProbability,
		Words:      words,
		Speakers:   speakers,
	}, nil
}

// statusMessage maps an ElevenLabs HTTP status to the message surfaced to
// callers. The taxonomy is part of the gateway's contract; do not reword.
func statusMessage(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "Invalid API key"
	case status == http.StatusTooManyRequests:
		return "Rate limit exceeded"
	case status == http.StatusRequestEntityTooLarge:
		return "Audio file too large for processing"
	case status >= 500:
		return "Speech service temporarily unavailable"
	default:
		return fmt.Sprintf("ElevenLabs API error: %d", status)
	}
}

// groupBySpeaker buckets word entries by their speaker_id, preserving
// spoken order within each speaker. Spacing entries and unattributed words
// are skipped.
func groupBySpeaker(words []elevenlabsWord) []Speaker {
	var order []string
	byID := make(map[string]*Speaker)

	for _, ew := range words {
		if ew.Type != "word" || ew.SpeakerID == "" {
			continue
		}
		sp, ok := byID[ew.SpeakerID]
		if !ok {
			sp = &Speaker{Speaker: ew.SpeakerID}
			byID[ew.SpeakerID] = sp
			order = append(order, ew.SpeakerID)
		}
		sp.Words = append(sp.Words, ew.Text)
	}

	if len(order) == 0 {
		return nil
	}
	speakers := make([]Speaker, 0, len(order))
	for _, id := range order {
		speakers = append(speakers, *byID[id])
	}
	return speakers
}
