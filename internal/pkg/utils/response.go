package utils

import (
	"encoding/json"
	"net/http"

	"github.com/imovlocal/backend/internal/pkg/errors"
)

// SuccessResponse represents a successful API response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response
func WriteSuccess(w http.ResponseWriter, status int, data interface{}) error {
	return WriteJSON(w, status, SuccessResponse{
		Success: true,
		Data:    data,
	})
}

// WriteSuccessWithMessage writes a successful JSON response with a message
func WriteSuccessWithMessage(w http.ResponseWriter, status int, message string, data interface{}) error {
	return WriteJSON(w, status, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// WriteError renders err. Anything that is not an AppError becomes a
// generic internal error so driver or storage text never leaks out.
func WriteError(w http.ResponseWriter, err error) error {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal("Internal server error", err)
	}
	message := appErr.Message
	if appErr.StatusCode >= http.StatusInternalServerError && appErr.Code != errors.ErrCodeStorage {
		message = "Internal server error"
	}
	return WriteJSON(w, appErr.StatusCode, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    appErr.Code,
			Message: message,
			Details: appErr.Details,
		},
	})
}

// WriteErrorMessage writes a simple error message
func WriteErrorMessage(w http.ResponseWriter, status int, code, message string) error {
	return WriteJSON(w, status, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
