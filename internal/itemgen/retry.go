package itemgen

import (
	"context"
	"time"
)

// RetryPolicy bounds how often a generation is attempted.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// Backoff is the pause between attempts. Zero retries immediately.
	Backoff time.Duration
}

// Result is the tagged outcome of Attempt: either a value, or the last
// error together with whether the bound was exhausted.
type Result[T any] struct {
	Value    T
	Attempts int
	Err      error

	// Exhausted is true when every allowed attempt failed. It is false
	// when the context ended the loop early.
	Exhausted bool
}

// OK reports whether a value was produced.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Attempt calls fn until it succeeds, the policy is exhausted, or ctx is
// done. attempt is 1-based. Attempt itself never panics or logs.
func Attempt[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context, attempt int) (T, error)) Result[T] {
	limit := p.MaxAttempts
	if limit < 1 {
		limit = 1
	}

	var res Result[T]
	for attempt := 1; attempt <= limit; attempt++ {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}

		res.Attempts = attempt
		v, err := fn(ctx, attempt)
		if err == nil {
			res.Value = v
			res.Err = nil
			return res
		}
		res.Err = err

		if ctx.Err() != nil {
			return res
		}
		if attempt < limit && p.Backoff > 0 {
			t := time.NewTimer(p.Backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				res.Err = ctx.Err()
				return res
			case <-t.C:
			}
		}
	}
	res.Exhausted = true
	return res
}
