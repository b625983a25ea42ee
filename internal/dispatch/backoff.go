package dispatch

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy computes the delay before a retry attempt. Strategies
// are stateless and safe for concurrent use.
type BackoffStrategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	Delay(attempt int) time.Duration
}

// ConstantBackoff always returns the same delay.
type ConstantBackoff struct {
	Interval time.Duration
}

func (c ConstantBackoff) Delay(_ int) time.Duration { return c.Interval }

// ExponentialBackoff applies full jitter to an exponential base:
// a random value in [0, min(Initial * 2^(attempt-1), Max)]. The jitter
// prevents thundering herd when many retries land together.
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

func (e ExponentialBackoff) Delay(attempt int) time.Duration {
	base := float64(e.Initial) * math.Pow(2, float64(attempt-1))
	if e.Max > 0 && base > float64(e.Max) {
		base = float64(e.Max)
	}
	return time.Duration(rand.Float64() * base)
}

// DefaultBackoff is the strategy used when none is configured.
func DefaultBackoff() BackoffStrategy {
	return ExponentialBackoff{Initial: time.Second, Max: time.Minute}
}
