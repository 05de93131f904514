// Package retry provides an injectable retry policy for transport calls.
package retry

import (
	"context"
	"time"
)

// Policy retries an operation on classified errors with a fixed escalating
// delay schedule. The zero value never retries.
type Policy struct {
	// Delays is the escalating wait schedule; its length bounds the number
	// of retries.
	Delays []time.Duration

	// Classify reports whether an error is worth retrying.
	Classify func(error) bool

	// Sleep is overridable for tests; nil means time.Sleep.
	Sleep func(time.Duration)
}

// Default is the schedule used against the real forge: retry rate-limited
// calls four times with escalating delays.
func Default(classify func(error) bool) Policy {
	return Policy{
		Delays:   []time.Duration{1 * time.Second, 5 * time.Second, 15 * time.Second, 30 * time.Second},
		Classify: classify,
	}
}

// Do runs op, retrying per the policy. The last error is returned once the
// schedule is exhausted or the error is not retryable.
func (p Policy) Do(ctx context.Context, op func() error) error {
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if p.Classify == nil || !p.Classify(err) || attempt >= len(p.Delays) {
			return err
		}

		delay := p.Delays[attempt]
		if p.Sleep != nil {
			p.Sleep(delay)
		} else {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
