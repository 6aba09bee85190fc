// services/planner-svc/internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"transit/pkg/apperror"
	"transit/pkg/logger"
)

// errorBody тело ответа с ошибкой
type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warn("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.HTTPStatus(), errorBody{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Field:   appErr.Field,
			Details: appErr.Details,
		})
		return
	}

	logger.Log.Error("Unhandled error", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{
		Code:    string(apperror.CodeInternal),
		Message: "internal error",
	})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperror.Wrap(err, apperror.CodeInvalidArgument, "invalid request body")
	}
	return nil
}
