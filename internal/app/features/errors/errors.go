// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"go.uber.org/zap"
)

// body is the JSON shape of every error response.
type body struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

// Write renders err as JSON with the status for its kind. Unclassified errors
// are reported as store_unavailable with a generic message.
func Write(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	msg := err.Error()
	if kind == "" {
		kind = apperr.KindUnavailable
		msg = "service unavailable"
	}
	status := StatusFor(kind)
	if status >= 500 {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	WriteJSON(w, status, body{Error: msg, Kind: string(kind)})
}

// WriteResult is Write with the operation's partial result attached, for
// operations that can fail after committing some of their work.
func WriteResult(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, result any) {
	kind := apperr.KindOf(err)
	if kind == "" {
		kind = apperr.KindUnavailable
	}
	log.Error("request failed with partial result",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	WriteJSON(w, StatusFor(kind), struct {
		body
		Result any `json:"result"`
	}{body{Error: err.Error(), Kind: string(kind)}, result})
}

// BadRequest renders a validation error for malformed input.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusBadRequest, body{Error: msg, Kind: string(apperr.KindValidation)})
}

// Unauthorized renders a 401 for callers without a session.
func Unauthorized(w http.ResponseWriter) {
	WriteJSON(w, http.StatusUnauthorized, body{Error: "sign in required", Kind: "unauthorized"})
}

// TooManyRequests renders a 429 for callers over a rate limit.
func TooManyRequests(w http.ResponseWriter) {
	WriteJSON(w, http.StatusTooManyRequests, body{Error: "too many requests, try again later", Kind: "rate_limited"})
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
