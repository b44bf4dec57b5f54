package handlers

import (
	"errors"
	"io"
	"net/http"

	"langpredict/internal/domain/models"
	"langpredict/internal/domain/services"
	"langpredict/pkg/logger"
)

// DetectionHandler handles language detection endpoints
type DetectionHandler struct {
	detection    *services.DetectionService
	registry     *services.ProfileRegistry
	maxBodyBytes int64
	logger       *logger.Logger
}

// NewDetectionHandler creates a new detection handler
func NewDetectionHandler(svc *services.DetectionService, registry *services.ProfileRegistry, maxBodyBytes int64, log *logger.Logger) *DetectionHandler {
	return &DetectionHandler{
		detection:    svc,
		registry:     registry,
		maxBodyBytes: maxBodyBytes,
		logger:       log.WithComponent("detection-handler"),
	}
}

// decode reads a JSON body into v and writes the error response on failure
func (h *DetectionHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		logger.FromContext(r.Context(), h.logger).Debug().Err(err).Msg("invalid request body")
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *DetectionHandler) ready(w http.ResponseWriter) bool {
	if !h.registry.Ready() {
		respondError(w, http.StatusServiceUnavailable, "no language profiles loaded")
		return false
	}
	return true
}

// Detect handles POST /api/v1/detect
func (h *DetectionHandler) Detect(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req models.DetectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.detection.Detect(r.Context(), &req)
	if err != nil {
		logger.FromContext(r.Context(), h.logger).Debug().Err(err).Msg("detection failed")
		respondDetectionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// DetectBatch handles POST /api/v1/detect/batch
func (h *DetectionHandler) DetectBatch(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req models.BatchDetectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "items are required")
		return
	}

	resp, err := h.detection.DetectBatch(r.Context(), req.Items)
	if err != nil {
		respondDetectionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
