package handlers

import (
	"context"

	"langpredict/internal/domain/services"
	"langpredict/internal/streaming"
	"langpredict/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health    *HealthHandler
	Detection *DetectionHandler
	Profiles  *ProfilesHandler
	Streaming *StreamingHandler
}

// ReadinessCheck reports the health of one dependency
type ReadinessCheck func(ctx context.Context) error

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Detection *services.DetectionService
	Registry  *services.ProfileRegistry
	// Scheduler records reloads; one without an interval is created when nil
	Scheduler *services.Scheduler
	Hub       *streaming.WebSocketHub
	EventBus  *streaming.EventBus
	// Checks are run by /ready, keyed by dependency name
	Checks       map[string]ReadinessCheck
	Version      string
	MaxBodyBytes int64
	Logger       *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = 1 << 20
	}
	if deps.Scheduler == nil {
		deps.Scheduler = services.NewScheduler(deps.Registry, 0, deps.Logger)
	}
	return &Handlers{
		Health:    NewHealthHandler(deps.Registry, deps.Checks, deps.Version, deps.Logger),
		Detection: NewDetectionHandler(deps.Detection, deps.Registry, deps.MaxBodyBytes, deps.Logger),
		Profiles:  NewProfilesHandler(deps.Registry, deps.Scheduler, deps.Logger),
		Streaming: NewStreamingHandler(deps.Hub, deps.EventBus, deps.Logger),
	}
}
