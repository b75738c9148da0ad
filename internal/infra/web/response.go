package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/usecase"
)

type apiError struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

// writeDomainError maps domain sentinels to wire status codes. Business
// rejections carry their reason; infrastructure trouble stays opaque.
func writeDomainError(w http.ResponseWriter, err error) {
	if reason, ok := usecase.ReasonFor(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: err.Error(), Reason: string(reason)})
		return
	}
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAllowanceExhausted):
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: err.Error(), Reason: "allowance_exhausted"})
	case errors.Is(err, domain.ErrUpstreamAuth):
		writeError(w, http.StatusBadGateway, "restoration provider rejected credentials")
	case errors.Is(err, domain.ErrUpstreamProcessing):
		writeError(w, http.StatusBadGateway, "restoration failed")
	case errors.Is(err, domain.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
