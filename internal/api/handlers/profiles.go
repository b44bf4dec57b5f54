package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"langpredict/internal/domain/services"
	"langpredict/pkg/logger"
)

// ProfilesHandler serves the active profile set
type ProfilesHandler struct {
	registry  *services.ProfileRegistry
	scheduler *services.Scheduler
	logger    *logger.Logger
}

// NewProfilesHandler creates a new profiles handler. Reloads go through
// scheduler so they show up in its job history.
func NewProfilesHandler(registry *services.ProfileRegistry, scheduler *services.Scheduler, log *logger.Logger) *ProfilesHandler {
	return &ProfilesHandler{
		registry:  registry,
		scheduler: scheduler,
		logger:    log.WithComponent("profiles-handler"),
	}
}

// Languages handles GET /api/v1/languages
func (h *ProfilesHandler) Languages(w http.ResponseWriter, r *http.Request) {
	info, err := h.registry.Info()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// Get handles GET /api/v1/profiles/{lang}
func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	lang := chi.URLParam(r, "lang")
	summary, ok := h.registry.Profile(lang)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown language: "+lang)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Reload handles POST /api/v1/profiles/reload
func (h *ProfilesHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if _, err := h.scheduler.RunNow(r.Context(), "api"); err != nil {
		respondDetectionError(w, err)
		return
	}
	info, err := h.registry.Info()
	if err != nil {
		respondDetectionError(w, err)
		return
	}
	h.logger.Info().Str("fingerprint", info.Fingerprint).Msg("profiles reloaded via API")
	respondJSON(w, http.StatusOK, info)
}

// ReloadStats handles GET /api/v1/profiles/reload/stats
func (h *ProfilesHandler) ReloadStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.scheduler.Stats())
}
