package handlers

import (
	"net/http"

	"langpredict/internal/streaming"
	"langpredict/pkg/logger"
)

// StreamingHandler handles real-time streaming endpoints
type StreamingHandler struct {
	wsHub    *streaming.WebSocketHub
	eventBus *streaming.EventBus
	logger   *logger.Logger
}

// NewStreamingHandler creates a new streaming handler
func NewStreamingHandler(wsHub *streaming.WebSocketHub, eventBus *streaming.EventBus, log *logger.Logger) *StreamingHandler {
	return &StreamingHandler{
		wsHub:    wsHub,
		eventBus: eventBus,
		logger:   log.WithComponent("streaming-handler"),
	}
}

// HandleWebSocket handles GET /ws/detections
func (h *StreamingHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, "websocket streaming not available")
		return
	}

	logger.FromContext(r.Context(), h.logger).Debug().
		Str("user_agent", r.UserAgent()).
		Msg("websocket upgrade requested")

	h.wsHub.ServeWebSocket(w, r)
}

// StreamStats is the body of GET /api/v1/stream/stats
type StreamStats struct {
	WebSocketClients    int `json:"websocket_clients"`
	EventBusSubscribers int `json:"event_bus_subscribers"`
}

// GetStats handles GET /api/v1/stream/stats
func (h *StreamingHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var stats StreamStats
	if h.wsHub != nil {
		stats.WebSocketClients = h.wsHub.ClientCount()
	}
	if h.eventBus != nil {
		stats.EventBusSubscribers = h.eventBus.SubscriberCount()
	}
	respondJSON(w, http.StatusOK, stats)
}
