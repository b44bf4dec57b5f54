package streaming

import (
	"slices"

	"langpredict/internal/domain/models"
)

// Subscription represents a client's subscription preferences
type Subscription struct {
	// Filter by event type (empty = all)
	Types []models.EventType `json:"types,omitempty"`

	// Filter detections by detected language (empty = all). Events without a
	// language, such as profile reloads, always pass.
	Languages []string `json:"languages,omitempty"`
}

// Matches checks if an event matches the subscription filters
func (s *Subscription) Matches(event *models.Event) bool {
	if s == nil {
		return true
	}
	if len(s.Types) > 0 && !slices.Contains(s.Types, event.Type) {
		return false
	}
	if len(s.Languages) > 0 && event.Language != "" && !slices.Contains(s.Languages, event.Language) {
		return false
	}
	return true
}
