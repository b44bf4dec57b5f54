package models

import (
	"time"

	"github.com/google/uuid"
)

// DetectionRequest asks for the language of one text
type DetectionRequest struct {
	Text string `json:"text"`

	// Per-request overrides of the detector defaults
	Alpha  *float64           `json:"alpha,omitempty"`
	Priors map[string]float64 `json:"priors,omitempty"`
	Seed   *int64             `json:"seed,omitempty"`

	// NoCache skips the result cache for this request
	NoCache bool `json:"no_cache,omitempty"`
}

// LanguageProbability is one ranked candidate language
type LanguageProbability struct {
	Language    string  `json:"language"`
	Probability float64 `json:"probability"`
}

// DetectionResult is the outcome of a detection
type DetectionResult struct {
	ID            uuid.UUID             `json:"id"` // per request, fresh on cache hits
	Language      string                `json:"language"`
	Probabilities []LanguageProbability `json:"probabilities"`
	Reliable      bool                  `json:"reliable"`
	TextLength    int                   `json:"text_length"`
	Cached        bool                  `json:"cached"`
	ProfileSet    string                `json:"profile_set"`
	DurationMS    float64               `json:"duration_ms"`
	DetectedAt    time.Time             `json:"detected_at"`
}

// BatchDetectionRequest holds several detection requests
type BatchDetectionRequest struct {
	Items []DetectionRequest `json:"items"`
}

// BatchDetectionItem is the result for one element of a batch. Exactly one of
// Result and Error is set.
type BatchDetectionItem struct {
	Index  int              `json:"index"`
	Result *DetectionResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
	Kind   string           `json:"error_kind,omitempty"`
}

// BatchDetectionResponse is the response for a batch
type BatchDetectionResponse struct {
	BatchID   uuid.UUID            `json:"batch_id"`
	Items     []BatchDetectionItem `json:"items"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
}
