// Package webjson is the one place API handlers shape their responses.
// Every endpoint answers with either OK (a payload) or Error (an error
// envelope carrying a stable machine-readable code), so clients never
// have to parse prose.
package webjson

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Stable error codes carried in the "code" field of error envelopes.
const (
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeInvalid         = "invalid"
	CodeInternal        = "internal"
)

// ErrorBody is the envelope every failed request returns.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// OK writes payload as JSON with the given status.
func OK(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// Error writes an error envelope with the given status, code, and message.
func Error(w http.ResponseWriter, status int, code, msg string) {
	OK(w, status, ErrorBody{Error: msg, Code: code})
}

// Unauthenticated answers 401 with code "unauthenticated".
func Unauthenticated(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "authentication required"
	}
	Error(w, http.StatusUnauthorized, CodeUnauthenticated, msg)
}

// Forbidden answers 403 with code "forbidden".
func Forbidden(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "permission denied"
	}
	Error(w, http.StatusForbidden, CodeForbidden, msg)
}

// NotFound answers 404 with code "not_found".
func NotFound(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "not found"
	}
	Error(w, http.StatusNotFound, CodeNotFound, msg)
}

// Conflict answers 409 with code "conflict".
func Conflict(w http.ResponseWriter, msg string) {
	Error(w, http.StatusConflict, CodeConflict, msg)
}

// Invalid answers 400 with code "invalid".
func Invalid(w http.ResponseWriter, msg string) {
	Error(w, http.StatusBadRequest, CodeInvalid, msg)
}

// Internal logs err and answers 500 without leaking the cause.
func Internal(w http.ResponseWriter, log *zap.Logger, operation string, err error) {
	if log != nil {
		log.Error("internal error", zap.String("operation", operation), zap.Error(err))
	}
	Error(w, http.StatusInternalServerError, CodeInternal, "internal server error")
}

// Decode parses the request body into dst. Unknown fields are rejected so
// typos in client payloads surface instead of silently dropping data.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
