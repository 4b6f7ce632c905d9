// Package handler holds shared HTTP response helpers.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/embla/internal/domain"
)

// ErrorCodeToHTTPStatus maps a domain error code to an HTTP status code.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	} `json:"error"`
}

// Error writes a domain error as a JSON response. Internal errors are logged
// with the underlying cause but sent to the client with a generic message.
func Error(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	if domain.IsValidationError(err) {
		code = domain.EINVALID
		message = "Validation failed"
	}
	status := ErrorCodeToHTTPStatus(code)

	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", "error", err)
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	body.Error.Fields = domain.GetValidationFields(err)

	JSON(w, status, body)
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Decode reads a JSON request body into v.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Invalid("handler.decode", "Invalid request body")
	}
	return nil
}
