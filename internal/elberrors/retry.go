package elberrors

import (
	"context"
	"math/rand"
	"time"
)

// Policy is the uniform retry policy every cloud API call site uses: one
// policy, applied everywhere, rather than a different budget per call site.
type Policy struct {
	Attempts int
	Base     time.Duration
	Jitter   float64 // fraction of Base added/subtracted, e.g. 0.2 = ±20%
}

// DefaultPolicy is 3 attempts, exponential backoff starting at 2s, ±20% jitter.
var DefaultPolicy = Policy{Attempts: 3, Base: 2 * time.Second, Jitter: 0.2}

// Retry runs fn up to p.Attempts times. If fn returns a TransientError, it
// sleeps (exponential backoff, jittered) and retries; any other error, or
// a nil error, stops immediately. If every attempt returns a
// TransientError, the last one is promoted to a *Error{Kind: KindCluster}.
func Retry(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	var lastErr error
	delay := p.Base
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
		if attempt == p.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered(delay, p.Jitter)):
		}
		delay *= 2
	}
	return Wrap(KindCluster, lastErr, "exceeded retry budget (%d attempts)", p.Attempts)
}

func jittered(d time.Duration, frac float64) time.Duration {
	if frac <= 0 {
		return d
	}
	delta := float64(d) * frac
	offset := (rand.Float64()*2 - 1) * delta
	return d + time.Duration(offset)
}
