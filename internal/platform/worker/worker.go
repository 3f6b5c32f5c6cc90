// Package worker provides loop and goroutine helpers for background processing.
// It encapsulates common patterns like ticker-driven loops, fire-and-forget tasks,
// context cancellation, and panic recovery shared by the forwarder and heartbeat.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Tasks runs independent units of work in their own goroutines.
// Submitting never blocks the caller.
type Tasks struct {
	wg     sync.WaitGroup
	logger *zerolog.Logger
}

// NewTasks creates a task runner that logs recovered panics to logger.
func NewTasks(logger *zerolog.Logger) *Tasks {
	return &Tasks{logger: getLogger(logger)}
}

// Go runs fn in a new goroutine. A panic inside fn is recovered and logged.
func (t *Tasks) Go(ctx context.Context, name string, fn func(ctx context.Context)) {
	t.wg.Add(1)

	go func() {
		defer t.wg.Done()
		defer RecoverPanic(t.logger, name)

		fn(ctx)
	}()
}

// Wait blocks until every submitted task has returned.
func (t *Tasks) Wait() {
	t.wg.Wait()
}

// Wait blocks until duration elapses or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RecoverPanic recovers from panics and logs them.
// Use as: defer worker.RecoverPanic(logger, "operation name")
func RecoverPanic(logger *zerolog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error().
			Interface("panic", r).
			Str("operation", operation).
			Msg("recovered from panic")
	}
}
