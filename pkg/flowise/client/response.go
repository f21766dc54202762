package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Response is a successful Flowise API response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IsJSON reports whether the server declared a JSON body.
func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType, "application/json")
}

// Empty reports whether the response carries no content.
func (r *Response) Empty() bool {
	return r.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(r.Body)) == 0
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Decode unmarshals a JSON body into v.
func (r *Response) Decode(v any) error {
	if r.Empty() {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Value returns the decoded JSON body, or the body text when the response is
// not JSON. A 204 yields {"success": true}.
func (r *Response) Value() any {
	if r.StatusCode == http.StatusNoContent {
		return map[string]any{"success": true}
	}
	if !r.IsJSON() {
		return r.Text()
	}
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return r.Text()
	}
	return v
}

// Object returns the body as a JSON object, if it is one.
func (r *Response) Object() (map[string]any, bool) {
	obj, ok := r.Value().(map[string]any)
	return obj, ok
}
