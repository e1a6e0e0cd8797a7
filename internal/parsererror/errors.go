// Package parsererror defines the error taxonomy of the parsing pipeline.
// ApiError and MalformedResponseError are recovered inside the orchestrator by
// falling back to heuristic parsing; only ValidationError crosses the caller
// boundary, when a confirmation payload is rejected.
package parsererror

import (
	"errors"
	"fmt"
)

// ApiError represents a failed call to the AI provider: network failure,
// timeout, or a non-success HTTP status.
type ApiError struct {
	Operation string // e.g. "generate", "list_models"
	Model     string
	Err       error
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("ai api %s failed for model %s: %v", e.Operation, e.Model, e.Err)
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

// MalformedResponseError represents AI output that is not valid JSON or
// violates the expected schema after best-effort field coercion.
type MalformedResponseError struct {
	Reason  string
	Snippet string // truncated raw output for debugging
	Err     error
}

func (e *MalformedResponseError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("malformed ai response: %s (got: %q)", e.Reason, e.Snippet)
	}
	return fmt.Sprintf("malformed ai response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// ValidationError represents an invalid confirmation payload at the caller
// boundary: a non-positive amount or an unrecognized enum value. It is the
// only pipeline error surfaced to users (HTTP 422 equivalent).
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// IsRecoverable reports whether an error is absorbed by the orchestrator's
// heuristic fallback rather than surfaced to the caller.
func IsRecoverable(err error) bool {
	var apiErr *ApiError
	var malformed *MalformedResponseError
	return errors.As(err, &apiErr) || errors.As(err, &malformed)
}
