package llm

import "time"

// RetryConfig holds retry tuning for oracle requests.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per call.
	MaxAttempts int

	// BackoffBase is the initial wait between attempts.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to the wait after each failure.
	BackoffMultiplier float64

	// MaxBackoff caps the wait between attempts.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns conservative defaults: the intake chat is
// interactive, so retries stay short and the caller falls back to a fixed
// apology rather than waiting long.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       2,
		BackoffBase:       500 * time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxBackoff:        2 * time.Second,
	}
}
