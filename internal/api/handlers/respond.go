package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/docpoint/docpoint-backend/pkg/errors"
)

// Helper functions shared by all handlers
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps the error taxonomy onto HTTP statuses. The stable
// code travels alongside the message so clients can branch without parsing
// message text.
func respondWithAppError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var statusCode int
	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		statusCode = http.StatusNotFound
	case apperrors.ErrorTypeValidation:
		statusCode = http.StatusBadRequest
	case apperrors.ErrorTypeConflict:
		statusCode = http.StatusConflict
	case apperrors.ErrorTypeUnauthorized:
		statusCode = http.StatusUnauthorized
	case apperrors.ErrorTypeTimeout:
		statusCode = http.StatusServiceUnavailable
	case apperrors.ErrorTypeExternal:
		statusCode = http.StatusBadGateway
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	payload := map[string]string{"error": appErr.Message}
	if appErr.Code != "" {
		payload["code"] = appErr.Code
	}
	respondWithJSON(w, statusCode, payload)
}
