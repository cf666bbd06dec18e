package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lucylow/rush-voice-gateway/internal/metrics"
)

const mistralChatEndpoint = "https://api.mistral.ai/v1/chat/completions"

// systemPrompt instructs the model to answer with a single JSON object
// carrying the fields of Result. Kept as one fixed string so every request
// is prompted identically.
const systemPrompt = `You are a support analysis engine for a voice-driven payment assistant. ` +
	`Analyze the user's message and respond with a single JSON object containing exactly these fields: ` +
	`"intent" (the user's goal, e.g. payment_issue, balance_inquiry, technical_support), ` +
	`"emotion" (the user's emotional state), ` +
	`"urgency" (one of: low, medium, high, critical), ` +
	`"technical_area" (the product area involved), ` +
	`"recommended_action" (the next step to take), ` +
	`and "confidence_score" (a number between 0 and 1). ` +
	`Respond with JSON only, no prose.`

// Analyzer submits text to a chat-completion model and interprets the reply.
type Analyzer interface {
	Analyze(ctx context.Context, text, contextText string) (*Reply, error)
	Model() string
}

// Reply carries the interpreted outcome plus the verbatim model reply.
type Reply struct {
	Outcome Outcome
	Raw     string
}

// MistralClient calls the Mistral chat-completions API.
// Implements the Analyzer interface.
type MistralClient struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// chatRequest is the Mistral chat-completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the Mistral response we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewMistralClient creates a new Mistral chat-completions client.
func NewMistralClient(apiKey, model string, timeout time.Duration) *MistralClient {
	return &MistralClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: mistralChatEndpoint,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// Model returns the configured model identifier.
func (mc *MistralClient) Model() string { return mc.model }

// Analyze sends one chat-completion request and interprets the reply.
// Low temperature and a bounded token budget keep the output near
// deterministic. Single attempt, no retries.
func (mc *MistralClient) Analyze(ctx context.Context, text, contextText string) (*Reply, error) {
	user := text
	if contextText != "" {
		user = fmt.Sprintf("Context: %s\n\nMessage: %s", contextText, text)
	}

	payload := chatRequest{
		Model: mc.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
		Temperature: 0.1,
		MaxTokens:   500,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mc.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+mc.apiKey)

	start := time.Now()
	resp, err := mc.client.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("mistral", "error").Inc()
		return nil, fmt.Errorf("mistral request: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream("mistral", resp.StatusCode, time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("Mistral API error: %d", resp.StatusCode)
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("mistral response contained no choices")
	}

	raw := strings.TrimSpace(result.Choices[0].Message.Content)
	return &Reply{
		Outcome: ParseOutcome(raw),
		Raw:     raw,
	}, nil
}
