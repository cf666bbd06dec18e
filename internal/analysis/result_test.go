package analysis

import (
	"encoding/json"
	"testing"
)

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		name           string
		reply          string
		wantStructured bool
	}{
		{"valid object", `{"intent":"payment_issue","emotion":"frustrated","urgency":"high","technical_area":"payments","recommended_action":"escalate","confidence_score":0.92}`, true},
		{"empty object", `{}`, true},
		{"prose", `Sorry, I cannot help with that.`, false},
		{"truncated json", `{"intent":"payment_`, false},
		{"json array", `[1,2,3]`, false},
		{"empty string", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOutcome(tt.reply)
			if (got.Structured != nil) != tt.wantStructured {
				t.Errorf("Structured != nil = %v, want %v", got.Structured != nil, tt.wantStructured)
			}
			if !tt.wantStructured && got.RawText != tt.reply {
				t.Errorf("RawText = %q, want %q", got.RawText, tt.reply)
			}
		})
	}
}

func TestParseOutcomeFields(t *testing.T) {
	o := ParseOutcome(`{"intent":"balance_inquiry","emotion":"calm","urgency":"low","technical_area":"wallet","recommended_action":"answer","confidence_score":0.87}`)
	if o.Structured == nil {
		t.Fatal("expected structured outcome")
	}
	r := o.Structured
	if r.Intent != "balance_inquiry" {
		t.Errorf("Intent = %q, want balance_inquiry", r.Intent)
	}
	if r.Urgency != "low" {
		t.Errorf("Urgency = %q, want low", r.Urgency)
	}
	if r.ConfidenceScore != 0.87 {
		t.Errorf("ConfidenceScore = %v, want 0.87", r.ConfidenceScore)
	}
}

// Out-of-range confidence is passed through, not clamped. The prompt asks
// the model for [0,1] but the gateway does not enforce it.
func TestParseOutcomeConfidenceNotClamped(t *testing.T) {
	o := ParseOutcome(`{"intent":"x","confidence_score":1.7}`)
	if o.Structured == nil {
		t.Fatal("expected structured outcome")
	}
	if o.Structured.ConfidenceScore != 1.7 {
		t.Errorf("ConfidenceScore = %v, want 1.7 (unclamped)", o.Structured.ConfidenceScore)
	}
}

func TestOutcomeMarshalJSON(t *testing.T) {
	t.Run("structured", func(t *testing.T) {
		o := Outcome{Structured: &Result{Intent: "payment_issue", ConfidenceScore: 0.5}}
		b, err := json.Marshal(o)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if m["intent"] != "payment_issue" {
			t.Errorf("intent = %v, want payment_issue", m["intent"])
		}
		if _, ok := m["raw_text"]; ok {
			t.Error("structured outcome must not carry raw_text")
		}
	})

	t.Run("raw_fallback", func(t *testing.T) {
		o := Outcome{RawText: "not json"}
		b, err := json.Marshal(o)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if m["raw_text"] != "not json" {
			t.Errorf("raw_text = %v, want %q", m["raw_text"], "not json")
		}
		if _, ok := m["intent"]; ok {
			t.Error("fallback outcome must not carry structured fields")
		}
	})
}
