package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lucylow/rush-voice-gateway/internal/analysis"
	"github.com/rs/zerolog"
)

// mockAnalyzer implements analysis.Analyzer for testing.
type mockAnalyzer struct {
	calls       int
	lastText    string
	lastContext string
	reply       *analysis.Reply
	err         error
}

func (m *mockAnalyzer) Analyze(ctx context.Context, text, contextText string) (*analysis.Reply, error) {
	m.calls++
	m.lastText = text
	m.lastContext = contextText
	if m.err != nil {
		return nil, m.err
	}
	return m.reply, nil
}

func (m *mockAnalyzer) Model() string { return "mistral-small-latest" }

func postAnalysis(t *testing.T, h *AnalysisHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/mistral-analysis", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Analyze(rec, req)
	return rec
}

func TestAnalyze_Success(t *testing.T) {
	mock := &mockAnalyzer{
		reply: &analysis.Reply{
			Outcome: analysis.Outcome{Structured: &analysis.Result{
				Intent:            "payment_issue",
				Emotion:           "worried",
				Urgency:           "high",
				TechnicalArea:     "payments",
				RecommendedAction: "check transaction status",
				ConfidenceScore:   0.91,
			}},
			Raw: `{"intent":"payment_issue"}`,
		},
	}
	h := NewAnalysisHandler(mock, zerolog.Nop())

	rec := postAnalysis(t, h, `{"text":"My payment failed","context":""}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	if mock.lastText != "My payment failed" {
		t.Errorf("text = %q", mock.lastText)
	}

	var resp struct {
		Analysis       map[string]any `json:"analysis"`
		RawResponse    string         `json:"raw_response"`
		Model          string         `json:"model"`
		ProcessingTime *int64         `json:"processing_time"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.Analysis == nil {
		t.Fatal("analysis missing from envelope")
	}
	if resp.Analysis["intent"] != "payment_issue" {
		t.Errorf("analysis.intent = %v, want payment_issue", resp.Analysis["intent"])
	}
	cs, ok := resp.Analysis["confidence_score"].(float64)
	if !ok || cs < 0 || cs > 1 {
		t.Errorf("analysis.confidence_score = %v, want number in [0,1]", resp.Analysis["confidence_score"])
	}
	if resp.RawResponse == "" {
		t.Error("raw_response missing from envelope")
	}
	if resp.Model != "mistral-small-latest" {
		t.Errorf("model = %q", resp.Model)
	}
	if resp.ProcessingTime == nil || *resp.ProcessingTime < 0 {
		t.Errorf("processing_time = %v, want non-negative integer", resp.ProcessingTime)
	}
}

func TestAnalyze_RawFallbackIs200(t *testing.T) {
	mock := &mockAnalyzer{
		reply: &analysis.Reply{
			Outcome: analysis.Outcome{RawText: "the model rambled instead"},
			Raw:     "the model rambled instead",
		},
	}
	h := NewAnalysisHandler(mock, zerolog.Nop())

	rec := postAnalysis(t, h, `{"text":"hello"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Analysis map[string]any `json:"analysis"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.Analysis["raw_text"] != "the model rambled instead" {
		t.Errorf("analysis = %v, want raw_text fallback", resp.Analysis)
	}
}

func TestAnalyze_MissingCredential(t *testing.T) {
	h := NewAnalysisHandler(nil, zerolog.Nop())

	rec := postAnalysis(t, h, `{"text":"hello"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error != "MISTRAL_API_KEY is not configured" {
		t.Errorf("error = %q, want message naming MISTRAL_API_KEY", resp.Error)
	}
}

func TestAnalyze_EmptyText(t *testing.T) {
	mock := &mockAnalyzer{}
	h := NewAnalysisHandler(mock, zerolog.Nop())

	rec := postAnalysis(t, h, `{"text":""}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if mock.calls != 0 {
		t.Errorf("analyzer called %d times, want 0", mock.calls)
	}
}

func TestAnalyze_MalformedBody(t *testing.T) {
	mock := &mockAnalyzer{}
	h := NewAnalysisHandler(mock, zerolog.Nop())

	rec := postAnalysis(t, h, `{not json`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if mock.calls != 0 {
		t.Errorf("analyzer called %d times, want 0", mock.calls)
	}
}

func TestAnalyze_UpstreamError(t *testing.T) {
	mock := &mockAnalyzer{err: fmt.Errorf("Mistral API error: 502")}
	h := NewAnalysisHandler(mock, zerolog.Nop())

	rec := postAnalysis(t, h, `{"text":"hello"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error != "Mistral API error: 502" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestAnalyze_ContextForwarded(t *testing.T) {
	mock := &mockAnalyzer{
		reply: &analysis.Reply{Outcome: analysis.Outcome{RawText: "x"}, Raw: "x"},
	}
	h := NewAnalysisHandler(mock, zerolog.Nop())

	postAnalysis(t, h, `{"text":"help","context":"wallet page"}`)

	if mock.lastContext != "wallet page" {
		t.Errorf("context = %q, want wallet page", mock.lastContext)
	}
}
