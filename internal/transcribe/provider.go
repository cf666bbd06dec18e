package transcribe

import "context"

// Provider is the interface for speech-to-text backends.
type Provider interface {
	Transcribe(ctx context.Context, req Request) (*Result, error)
	Name() string  // "elevenlabs"
	Model() string // default model identifier for logs/envelopes
}

// Request is one transcription request. Audio is held in memory for the
// lifetime of the request only; nothing is written to disk.
type Request struct {
	Audio    []byte
	Filename string

	// Language is an ISO-639 code, or "auto" (the default) to let the
	// vendor detect it. "auto" is never forwarded upstream — the field is
	// simply omitted.
	Language string

	// Model overrides the provider's configured default when non-empty.
	Model string

	// Diarize requests speaker attribution; SpeakerCount is the hint
	// forwarded alongside it.
	Diarize      bool
	SpeakerCount int
}

// Result is the common transcription result from any provider.
type Result struct {
	Text       string
	Language   string
	Confidence float64 // language probability; 0 if the vendor omits it
	Words      []Word  // nil if the provider doesn't return word timestamps
	Speakers   []Speaker
}

// Word is a timestamped word from any STT provider.
type Word struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"` // seconds
	End        float64 `json:"end"`   // seconds
	Confidence float64 `json:"confidence,omitempty"`
}

// Speaker groups the words attributed to one diarized speaker, in spoken order.
type Speaker struct {
	Speaker string   `json:"speaker"`
	Words   []string `json:"words"`
}
