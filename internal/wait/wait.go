// Package wait polls a condition until it holds or a deadline passes.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout matches every *TimeoutError.
var ErrTimeout = errors.New("wait timed out")

// TimeoutError is returned by Until when the condition never held. Last is
// the most recent error reported by the check, if any.
type TimeoutError struct {
	Timeout time.Duration
	Last    error
}

func (e *TimeoutError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("condition not met after %s: %v", e.Timeout, e.Last)
	}
	return fmt.Sprintf("condition not met after %s", e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

func (e *TimeoutError) Unwrap() error { return e.Last }

type abortError struct{ err error }

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

// Abort wraps err so that Until stops polling and returns err at once.
func Abort(err error) error {
	return &abortError{err: err}
}

// Until calls check every interval until it returns true. A check error does
// not stop polling unless it was made with Abort; otherwise it is kept and
// reported if the timeout passes. Until returns ctx.Err() if ctx ends first.
func Until(ctx context.Context, interval, timeout time.Duration, check func(context.Context) (bool, error)) error {
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last error
	for {
		ok, err := check(checkCtx)
		if ok {
			return nil
		}
		var abort *abortError
		if errors.As(err, &abort) {
			return abort.err
		}
		last = err

		select {
		case <-ticker.C:
		case <-deadline.C:
			return &TimeoutError{Timeout: timeout, Last: last}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
