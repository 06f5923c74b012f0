package realtime

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultMaxAttempts  = 5
	defaultInitialDelay = time.Second
	defaultMaxDelay     = 30 * time.Second
)

// Policy bounds connection attempts. Delays double from InitialDelay up to MaxDelay.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultPolicy is five attempts starting at one second, capped at thirty seconds.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  defaultMaxAttempts,
		InitialDelay: defaultInitialDelay,
		MaxDelay:     defaultMaxDelay,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}

	if p.InitialDelay <= 0 {
		p.InitialDelay = defaultInitialDelay
	}

	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}

	return p
}

func (p Policy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = p.MaxDelay
	b.Reset()

	return b
}
