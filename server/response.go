package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"JNChoral/core/apperr"
	"JNChoral/logger"
)

// apiResponse is the envelope of every JSON endpoint.
type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Field   string      `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("编码响应失败", logger.ErrorField(err))
	}
}

func writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, apiResponse{Success: true, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: false, Message: message})
}

// writeError maps a service error onto its HTTP response.
// Unexpected errors are logged and reported with fallback as the only detail.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if ve, ok := apperr.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: ve.Message, Field: ve.Field})
		return
	}

	msg, public := apperr.PublicMessage(err)
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		if !public {
			msg = "Unauthorized"
		}
		writeFailure(w, http.StatusUnauthorized, msg)
	case errors.Is(err, apperr.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "Not found")
	case errors.Is(err, apperr.ErrConflict):
		if !public {
			msg = "Conflict"
		}
		writeFailure(w, http.StatusConflict, msg)
	default:
		logger.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.ErrorField(err))
		writeFailure(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON reads a JSON body of at most 1 MiB into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Invalid("", "Invalid request body")
	}
	return nil
}
