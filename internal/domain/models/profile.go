package models

import "time"

// ProfileSummary describes a loaded language profile
type ProfileSummary struct {
	Language   string `json:"language"`
	Slot       int    `json:"slot"`
	Unigrams   int    `json:"unigrams"`
	Bigrams    int    `json:"bigrams"`
	Trigrams   int    `json:"trigrams"`
	Vocabulary int    `json:"vocabulary"`
}

// ProfileSetInfo describes the active profile set
type ProfileSetInfo struct {
	Fingerprint string           `json:"fingerprint"`
	Source      string           `json:"source"`
	Languages   []string         `json:"languages"`
	Vocabulary  int              `json:"vocabulary"`
	Seeded      bool             `json:"seeded"`
	LoadedAt    time.Time        `json:"loaded_at"`
	Profiles    []ProfileSummary `json:"profiles,omitempty"`
}

// EvaluationSample is one labelled text of a batch test
type EvaluationSample struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// LanguageAccuracy is the batch test outcome for one language
type LanguageAccuracy struct {
	Language string         `json:"language"`
	Total    int            `json:"total"`
	Correct  int            `json:"correct"`
	Accuracy float64        `json:"accuracy"`
	Detected map[string]int `json:"detected"`
	Baseline int            `json:"baseline_correct,omitempty"`
}

// EvaluationReport is the outcome of a batch test
type EvaluationReport struct {
	Languages     []LanguageAccuracy `json:"languages"`
	Total         int                `json:"total"`
	Correct       int                `json:"correct"`
	Accuracy      float64            `json:"accuracy"`
	Failed        int                `json:"failed"`
	BaselineUsed  bool               `json:"baseline_used"`
	BaselineTotal int                `json:"baseline_correct,omitempty"`
}
