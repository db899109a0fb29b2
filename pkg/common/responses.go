package common

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "fsmviz/pkg/errors"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// RespondError sends an error response
func RespondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// RespondAppError maps a domain error onto the HTTP response envelope,
// preserving its code, status and details.
func RespondAppError(w http.ResponseWriter, err error) {
	response := APIResponse{
		Success: false,
		Error: &ErrorInfo{
			Code:    pkgerrors.CodeOf(err),
			Message: err.Error(),
		},
	}

	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) && appErr.Details != nil {
		response.Error.Details = appErr.Details
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(pkgerrors.StatusOf(err))
	json.NewEncoder(w).Encode(response)
}
