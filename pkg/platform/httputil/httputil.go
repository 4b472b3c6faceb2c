package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "countrycatalog/pkg/domain-errors"
)

const internalErrorMessage = "Internal server error"

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into a JSON error envelope.
// Errors without a code, and internal errors, never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.As(err)
	if !ok || de.Code == dErrors.CodeInternal {
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": internalErrorMessage})
		return
	}

	body := map[string]string{"error": de.Message}
	if de.Details != "" {
		body["details"] = de.Details
	}
	WriteJSON(w, StatusFor(de.Code), body)
}

// StatusFor maps a domain error code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
