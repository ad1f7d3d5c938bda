package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"finboard/internal/core"
	"finboard/internal/storage"
)

const dateLayout = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeStorageError maps repository errors onto API status codes.
func writeStorageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	slog.ErrorContext(r.Context(), "Storage error", "error", err, "url", r.URL.Path)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// decodeJSON reads the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parsePeriod reads from/to query parameters, defaulting to the last
// 30 days ending today.
func parsePeriod(r *http.Request) (from, to time.Time, err error) {
	to = core.TruncateToDay(time.Now().UTC())
	from = to.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = time.Parse(dateLayout, v); err != nil {
			return from, to, core.ErrInvalidDate
		}
	}
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse(dateLayout, v); err != nil {
			return from, to, core.ErrInvalidDate
		}
	}
	if from.After(to) {
		return from, to, core.ErrInvalidDate
	}
	return from, to, nil
}
