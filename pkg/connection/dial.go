package connection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rawlink-protocol/rawlink-go/pkg/transport"
)

// Dial errors.
var (
	// ErrAttemptsExhausted indicates the dial budget ran out.
	ErrAttemptsExhausted = errors.New("dial attempts exhausted")

	// ErrSupervisorClosed indicates the supervisor has been closed.
	ErrSupervisorClosed = errors.New("supervisor closed")
)

// DialFunc establishes one link. It is called repeatedly by
// OpenWithRetry and Supervisor, so it must be safe to call again after
// a failure.
type DialFunc func(ctx context.Context) (*transport.StreamLink, error)

// RetryConfig controls OpenWithRetry.
type RetryConfig struct {
	// Backoff parameters; zero values use the package defaults.
	Backoff BackoffConfig

	// MaxAttempts bounds the number of dial attempts. 0 means no
	// bound; the context is then the only way to give up.
	MaxAttempts int

	// OnRetry is called after each failed attempt, before the wait.
	OnRetry func(attempt int, err error)
}

// OpenWithRetry dials until a link comes up, the attempt budget runs
// out or ctx is done. The last dial error is wrapped in the returned
// error so callers can inspect it.
func OpenWithRetry(ctx context.Context, dial DialFunc, cfg RetryConfig) (*transport.StreamLink, error) {
	backoff := NewBackoffWithConfig(cfg.Backoff)

	var lastErr error
	for {
		link, err := dial(ctx)
		if err == nil {
			return link, nil
		}
		lastErr = err

		attempt := backoff.Attempts() + 1
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}
		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			return nil, fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempt, lastErr)
		}

		timer := time.NewTimer(backoff.Next())
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("dial: %w (last error: %w)", ctx.Err(), lastErr)
		case <-timer.C:
		}
	}
}
