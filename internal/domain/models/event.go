package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a streamed event
type EventType string

const (
	EventTypeDetection      EventType = "detection"
	EventTypeProfilesLoaded EventType = "profiles_loaded"
)

// Event is published to NATS, the in-process event bus and websocket clients
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Type      EventType      `json:"type"`
	Language  string         `json:"language,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`

	// Origin names the instance that published the event
	Origin string `json:"origin,omitempty"`
}

// NewDetectionEvent builds the event for a finished detection. The text itself
// is never published.
func NewDetectionEvent(r *DetectionResult) *Event {
	return &Event{
		ID:       uuid.New(),
		Type:     EventTypeDetection,
		Language: r.Language,
		Data: map[string]any{
			"result_id":     r.ID.String(),
			"probabilities": r.Probabilities,
			"text_length":   r.TextLength,
			"reliable":      r.Reliable,
			"cached":        r.Cached,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewProfilesLoadedEvent builds the event for a profile set (re)load.
func NewProfilesLoadedEvent(info *ProfileSetInfo) *Event {
	return &Event{
		ID:   uuid.New(),
		Type: EventTypeProfilesLoaded,
		Data: map[string]any{
			"fingerprint": info.Fingerprint,
			"languages":   info.Languages,
			"source":      info.Source,
		},
		Timestamp: time.Now().UTC(),
	}
}
