package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// jitter is the fraction by which each backoff is randomly stretched or shrunk.
const jitter = 0.25

// RetryConfig controls how often and how patiently a call is retried. Only
// TransientError failures are retried.
type RetryConfig struct {
	// MaxAttempts counts the first try. Default: 3.
	MaxAttempts int
	// InitialBackoff doubles after every retry. Default: 500ms.
	InitialBackoff time.Duration
	// MaxBackoff caps a single wait. Default: 30s.
	MaxBackoff time.Duration
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns the retry policy for feed downloads and lookups.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
	}
}

// DoVal calls fn until it succeeds, fails permanently or runs out of
// attempts, and returns the last error. A cancelled ctx stops the waiting.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = withDefaults(cfg)

	var (
		val T
		err error
	)
	for attempt := 1; ; attempt++ {
		val, err = fn(ctx)
		if err == nil || attempt >= cfg.MaxAttempts || ctx.Err() != nil || !isTransient(err) {
			return val, err
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		timer := time.NewTimer(backoff(attempt, cfg))
		select {
		case <-ctx.Done():
			timer.Stop()
			return val, err
		case <-timer.C:
		}
	}
}

func withDefaults(cfg RetryConfig) RetryConfig {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	return cfg
}

// backoff returns the wait after the given failed attempt (1-based).
func backoff(attempt int, cfg RetryConfig) time.Duration {
	d := cfg.InitialBackoff << (attempt - 1)
	if d <= 0 || d > cfg.MaxBackoff {
		d = cfg.MaxBackoff
	}
	return time.Duration(float64(d) * (1 + jitter*(rand.Float64()*2-1)))
}

// RetryLogger returns an OnRetry callback that logs a warning per retry.
func RetryLogger(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
