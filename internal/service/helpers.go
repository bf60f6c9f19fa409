package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samborkent/uuidv7"

	"github.com/cypherlabdev/maestro-tips/internal/metrics"
	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// DefaultTimeout bounds every backend call when no timeout is configured
const DefaultTimeout = 5 * time.Second

// NewID returns a time-ordered identifier for a stored record
func NewID() string {
	return uuidv7.New().String()
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// backendError passes domain errors through untouched and marks everything
// else, timeouts included, as ErrBackendUnavailable
func backendError(m *metrics.Metrics, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrConflict) ||
		errors.Is(err, models.ErrValidation) {
		return err
	}
	m.BackendError(op)
	return fmt.Errorf("%s: %w: %w", op, models.ErrBackendUnavailable, err)
}

func requireAdmin(actor models.Actor, op string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%s: %w: admin role required", op, models.ErrUnauthorized)
	}
	return nil
}

func requireUser(actor models.Actor, op string) error {
	if actor.Anonymous() {
		return fmt.Errorf("%s: %w: sign in required", op, models.ErrUnauthorized)
	}
	return nil
}
