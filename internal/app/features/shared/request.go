// Package shared holds request helpers used by several features.
package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/circlehub/internal/app/system/apperr"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// DecodeJSON reads the request body into out. Malformed or oversized bodies
// are reported as validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, op string, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation(op, "body", "request body is required")
		}
		return apperr.Validation(op, "body", "invalid JSON: "+err.Error())
	}
	return nil
}
