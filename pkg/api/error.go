// Package api provides the wire representations of AutonoMind backend
// requests and responses which are then further classified and handled.
package api

import "fmt"

// ErrorResponse represents a structured error body from the backend.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error is a transport-level failure: a request that completed with a
// non-success status, carrying whatever message the backend reported.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}
