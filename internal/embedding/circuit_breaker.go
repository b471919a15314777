package embedding

import (
	"fmt"

	"resumatch/internal/config"
	"resumatch/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker wraps provider calls returning T with the circuit breaker pattern.
// A nil *CircuitBreaker executes calls directly.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// NewCircuitBreaker creates a breaker named after the guarded operation.
// It returns nil when the breaker is disabled.
func NewCircuitBreaker[T any](name string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *CircuitBreaker[T] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("Embedding-%s", name),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &CircuitBreaker[T]{
		cb: gobreaker.NewCircuitBreaker[T](settings),
	}
}

// Execute executes the provided function with circuit breaker protection
func (cb *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}
	return cb.cb.Execute(fn)
}

// Stats returns circuit breaker statistics
func (cb *CircuitBreaker[T]) Stats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (cb *CircuitBreaker[T]) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true
	}
	return cb.cb.State() == gobreaker.StateClosed
}

// isBreakerRejection reports whether err was produced by the breaker itself.
func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
