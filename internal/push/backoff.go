package push

import (
	"math"
	"time"
)

// Backoff is the reconnect policy of the channel. The n-th consecutive
// reconnect waits Initial*Multiplier^(n-1), capped at Max, spread by ±Jitter.
// MaxRetries bounds consecutive failed reconnects; zero means unbounded.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
	MaxRetries int
}

// DefaultBackoff returns the policy used when none is configured.
func DefaultBackoff() Backoff {
	return Backoff{
		Initial:    3 * time.Second,
		Max:        30 * time.Second,
		Multiplier: 2,
		Jitter:     0.2,
		MaxRetries: 50,
	}
}

// FixedBackoff retries forever after the same delay.
func FixedBackoff(d time.Duration) Backoff {
	return Backoff{Initial: d, Max: d, Multiplier: 1}
}

// Delay returns the wait before reconnect attempt n (1-based). rnd yields
// values in [0, 1) and may be nil when Jitter is zero.
func (b Backoff) Delay(attempt int, rnd func() float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}

	d := float64(b.Initial) * math.Pow(mult, float64(attempt-1))
	if b.Max > 0 && d > float64(b.Max) {
		d = float64(b.Max)
	}
	if b.Jitter > 0 && rnd != nil {
		d *= 1 - b.Jitter + 2*b.Jitter*rnd()
	}
	return time.Duration(d)
}

// Exhausted reports whether attempt goes past the retry ceiling.
func (b Backoff) Exhausted(attempt int) bool {
	return b.MaxRetries > 0 && attempt > b.MaxRetries
}
