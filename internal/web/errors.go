package web

// errors.go maps engine and store failures onto HTTP responses: client
// mistakes (bad payloads, broken header contracts) get 400s with the
// reason spelled out, store outages get 503, everything unexpected
// stays a generic 500 with the detail confined to the server log.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pushkind/dantes/internal/catalog"
	"github.com/pushkind/dantes/internal/dispatch"
	"github.com/pushkind/dantes/internal/logging"
	"github.com/pushkind/dantes/internal/repository"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError logs the failure and writes the mapped JSON response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := mapError(err)

	logging.FromContext(r.Context()).Error("request failed",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err,
	)

	writeJSON(w, status, ErrorResponse{Error: message})
}

func mapError(err error) (int, string) {
	var decodeErr *catalog.DecodeError
	if errors.As(err, &decodeErr) {
		return http.StatusBadRequest, decodeErr.Error()
	}

	var headerErr *catalog.HeaderContractError
	if errors.As(err, &headerErr) {
		return http.StatusBadRequest, headerErr.Error()
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return http.StatusBadRequest, err.Error()
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, dispatch.ErrEmptyBatch):
		return http.StatusBadRequest, dispatch.ErrEmptyBatch.Error()
	case errors.Is(err, catalog.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "storage temporarily unavailable"
	}
	return http.StatusInternalServerError, "internal error"
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are out; nothing left to do but record it.
		slog.Error("json encode failed", "error", err)
	}
}
