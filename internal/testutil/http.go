package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/circlehub/internal/app/system/auth"
)

// NewJSONRequest builds a request whose body is v encoded as JSON. A nil v
// sends no body.
func NewJSONRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if v != nil {
		if err := json.NewEncoder(&buf).Encode(v); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AsUser returns req carrying a signed-in session user.
func AsUser(req *http.Request, id, name, role string) *http.Request {
	u := &auth.SessionUser{ID: id, Name: name, Role: role}
	return req.WithContext(auth.WithUser(req.Context(), u))
}

// Serve runs req through h and returns the recorder.
func Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// DecodeJSON decodes the recorded response body into out.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}
