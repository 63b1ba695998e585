package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeAuth       = "unauthorized"
	ErrCodeNotFound   = "not_found"
	ErrCodeValidation = "bad_request"
	ErrCodePermission = "forbidden"
	ErrCodeState      = "conflict"
)

// Error kinds. Match them with errors.Is.
var (
	ErrAuth       = errors.New("unauthorized")
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid input")
	ErrPermission = errors.New("permission denied")
	ErrState      = errors.New("conflicting state")

	// ErrHubStopped is returned when the hub no longer accepts tasks.
	ErrHubStopped = errors.New("hub stopped")
	// ErrNotLoaded is returned when a task runs before Load.
	ErrNotLoaded = errors.New("snapshot not loaded")
)

// CoreError wraps an error kind with a code and a human-readable message.
type CoreError struct {
	Code    string
	Message string
	kind    error
}

func (e *CoreError) Error() string {
	return e.Message
}

// Unwrap exposes the error kind to errors.Is.
func (e *CoreError) Unwrap() error {
	return e.kind
}

func coreError(kind error, code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg, kind: kind}
}

func authError(msg string) error       { return coreError(ErrAuth, ErrCodeAuth, msg) }
func notFoundError(msg string) error   { return coreError(ErrNotFound, ErrCodeNotFound, msg) }
func validationError(msg string) error { return coreError(ErrValidation, ErrCodeValidation, msg) }
func permissionError(msg string) error { return coreError(ErrPermission, ErrCodePermission, msg) }
func stateError(msg string) error      { return coreError(ErrState, ErrCodeState, msg) }
