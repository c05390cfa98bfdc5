package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/meterlens/internal/service"
	"github.com/tejusbharadwaj/meterlens/internal/source"
)

var errBadRequest = errors.New("invalid request body")

type errorResponse struct {
	Error string `json:"error"`
}

// statusOf maps an error to its HTTP status code.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, service.ErrDocumentRequired),
		errors.Is(err, service.ErrDocumentTooLarge),
		errors.Is(err, service.ErrInvalidCountry),
		errors.Is(err, service.ErrUnknownTimezone),
		errors.Is(err, service.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, source.ErrNoDataset):
		return http.StatusNotFound
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case isContextError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	entry := h.logger.WithFields(logrus.Fields{
		"path":   r.URL.Path,
		"status": code,
	}).WithError(err)
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}
	writeError(w, code, err)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
