package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"beneficiary-portal/internal/apierr"
	"beneficiary-portal/internal/util"
)

// Response is the standard API envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func successResponse(data interface{}, message string) Response {
	return Response{
		Success: true,
		Data:    data,
		Message: message,
	}
}

// errorResponse maps the error onto the envelope: Error carries the kind,
// Message the Arabic user text.
func errorResponse(err error) Response {
	return Response{
		Success: false,
		Error:   apierr.KindOf(err).String(),
		Message: apierr.UserMessage(err),
	}
}

func respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		util.Error("Failed to encode JSON response", zap.Error(err))
	}
}

func respondWithError(w http.ResponseWriter, err error) {
	statusCode := apierr.HTTPStatus(err)
	util.Warn("HTTP error response",
		zap.Int("status_code", statusCode),
		zap.String("kind", apierr.KindOf(err).String()),
		zap.Error(err))
	respondWithJSON(w, statusCode, errorResponse(err))
}

func decodeJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apierr.New(apierr.KindValidation, "صيغة الطلب غير صالحة")
	}
	return nil
}
