package bayeux

import (
	"time"

	"github.com/cenkalti/backoff"
)

// reconnectBackoff computes the extra delay to add on top of the server's
// advised interval after consecutive meta-connect failures. It wraps
// cenkalti/backoff's ExponentialBackOff, the same library used for
// reconnection in socket-iox/socket-io-client-go, configured with simple
// geometric defaults: base * 2^n, capped.
type reconnectBackoff struct {
	b *backoff.ExponentialBackOff
}

func newReconnectBackoff(base, cap time.Duration) *reconnectBackoff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = cap
	b.MaxElapsedTime = 0 // never give up on its own; the session decides when to stop
	b.Reset()
	return &reconnectBackoff{b: b}
}

// next returns the backoff delay to add after another consecutive failure.
func (r *reconnectBackoff) next() time.Duration {
	d := r.b.NextBackOff()
	if d == backoff.Stop {
		return r.b.MaxInterval
	}
	return d
}

// reset clears the accrued backoff, called after any successful
// meta-connect.
func (r *reconnectBackoff) reset() {
	r.b.Reset()
}

// nextConnectDelay computes the effective delay before the next
// /meta/connect: the server's advised interval plus any accrued backoff.
func nextConnectDelay(advice *Advice, bo *reconnectBackoff, failing bool) time.Duration {
	delay := advice.IntervalDuration()
	if failing {
		delay += bo.next()
	} else {
		bo.reset()
	}
	return delay
}
