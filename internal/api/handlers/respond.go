package handlers

import (
	"context"
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"langpredict/internal/detection"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, ErrorResponse{Error: msg})
}

// respondDetectionError maps a detection error kind to an HTTP status
func respondDetectionError(w http.ResponseWriter, err error) {
	kind := detection.KindOf(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// 499 Client Closed Request
		status = 499
	case kind == detection.KindConfiguration:
		status = http.StatusBadRequest
	case kind == detection.KindNoFeatures:
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind.String()})
}
