package analysis

import "encoding/json"

// Result is the structured intent analysis the model is prompted to return.
type Result struct {
	Intent            string  `json:"intent"`
	Emotion           string  `json:"emotion"`
	Urgency           string  `json:"urgency"`
	TechnicalArea     string  `json:"technical_area"`
	RecommendedAction string  `json:"recommended_action"`
	ConfidenceScore   float64 `json:"confidence_score"`
}

// Outcome is a tagged union: either a structured Result, or the model's
// verbatim reply when it could not be parsed as one. Exactly one branch is
// set. Callers should check Structured != nil rather than probing fields.
type Outcome struct {
	Structured *Result
	RawText    string
}

// rawFallback is the degraded wire shape used when the model reply was not
// valid JSON.
type rawFallback struct {
	RawText string `json:"raw_text"`
}

// MarshalJSON emits the structured shape when present, otherwise the
// raw-text fallback object.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Structured != nil {
		return json.Marshal(o.Structured)
	}
	return json.Marshal(rawFallback{RawText: o.RawText})
}

// ParseOutcome interprets a model reply. A reply that does not decode as a
// JSON object becomes a raw-text fallback; this is a non-failure path, so
// no error is returned. confidence_score is passed through unchecked: the
// prompt asks for [0,1] but the vendor is not trusted to comply.
func ParseOutcome(reply string) Outcome {
	var r Result
	if err := json.Unmarshal([]byte(reply), &r); err != nil {
		return Outcome{RawText: reply}
	}
	return Outcome{Structured: &r}
}
