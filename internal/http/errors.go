package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	ErrorCode string         `json:"errorCode"`
	Message   string         `json:"message"`
	Path      string         `json:"path"`
	Status    int            `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindBadRequest, apperr.KindInsufficientStock, apperr.KindCartEmpty:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	resp := ErrorResponse{
		ErrorCode: string(kind),
		Path:      r.URL.Path,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}

	var ae *apperr.Error
	if status < http.StatusInternalServerError && errors.As(err, &ae) {
		resp.Message = ae.Message
		resp.Details = ae.Details
	} else {
		resp.Message = "An unexpected error occurred"
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, "Malformed request body", err)
	}
	return nil
}
