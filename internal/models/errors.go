package models

import "errors"

var (
	// ErrValidation marks malformed creation or settlement input
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a reference to a nonexistent tip, news post or message
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a transition the state machine does not allow,
	// e.g. settling an already settled tip
	ErrConflict = errors.New("conflict")

	// ErrBackendUnavailable marks a failed or timed out persistence call
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrAIUnavailable marks an unreachable or unconfigured generative-text service
	ErrAIUnavailable = errors.New("ai unavailable")

	// ErrUnauthorized marks a caller lacking the role an operation requires
	ErrUnauthorized = errors.New("unauthorized")
)
