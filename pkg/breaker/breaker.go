package breaker

import (
	"context"
	"errors"
	"time"

	"webchat/apperrors"
	"webchat/pkg/logger"

	"github.com/sony/gobreaker"
)

// Config allows custom settings for specific breakers
type Config struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration

	// Threshold is the failure ratio that trips the breaker once MinRequests is reached
	Threshold   float64
	MinRequests uint32
}

// New creates a CircuitBreaker, filling zero fields with defaults
func New(cfg Config) *gobreaker.CircuitBreaker {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.Interval == 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = 0.6
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 5
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.Threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker changed state")
		},
	})
}

// ExecuteCtx runs fn through cb unless ctx is already done.
// An open breaker is reported as a service-unavailable AppError.
func ExecuteCtx(ctx context.Context, cb *gobreaker.CircuitBreaker, fn func() (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apperrors.NewCircuitBreakerError(cb.Name(), cb.State().String()).WithInternal(err)
	}
	return res, err
}
