package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"bookcatalog/internal/httpx"
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// NewRequest creates a new HTTP request for testing. A string body is sent as
// is; anything else is JSON-encoded.
func NewRequest(method, path string, body any) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	var raw []byte
	if s, ok := body.(string); ok {
		raw = []byte(s)
	} else {
		raw, _ = json.Marshal(body)
	}
	r := httptest.NewRequest(method, path, bytes.NewReader(raw))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// NewRequestWithBasicAuth creates a new HTTP request carrying basic credentials.
func NewRequestWithBasicAuth(method, path string, body any, username, password string) *http.Request {
	r := NewRequest(method, path, body)
	r.SetBasicAuth(username, password)
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]any
	Raw    []byte
}

// RecordHTTPResponse records the HTTP response
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	raw, _ := io.ReadAll(result.Body)

	var body map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   body,
		Raw:    raw,
	}
}

// DecodeError decodes the standard error body.
func DecodeError(w *httptest.ResponseRecorder) (httpx.ErrorResponse, error) {
	var resp httpx.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	return resp, err
}
