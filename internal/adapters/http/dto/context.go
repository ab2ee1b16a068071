package dto

import (
	"encoding/json"
	"strings"
)

// ContextResponse is the body of the whole-context endpoints.
type ContextResponse struct {
	Context map[string]any `json:"context"`
}

// ValueResponse is the body of a single-path lookup.
type ValueResponse struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// ContextPath is a dotted path taken from the URL.
type ContextPath struct {
	Path string `json:"path" validate:"required,dotted"`
}

// NewContextPath accepts both "/app/name" and "/app.name" forms.
func NewContextPath(raw string) ContextPath {
	p := strings.Trim(raw, "/")
	p = strings.ReplaceAll(p, "/", ".")

	return ContextPath{Path: p}
}

// SetValueRequest is the body of PUT /api/v1/context/*path. Any JSON value
// is accepted, including null; the key itself is required.
type SetValueRequest struct {
	Value json.RawMessage `json:"value" validate:"required"`
}

// Decode returns the value as plain Go data.
func (r *SetValueRequest) Decode() (any, error) {
	var v any
	if err := json.Unmarshal(r.Value, &v); err != nil {
		return nil, err
	}

	return v, nil
}
