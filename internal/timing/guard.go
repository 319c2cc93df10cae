package timing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// ErrTimeout matches every error returned by WithTimeout when the deadline
// passes before the computation finishes.
var ErrTimeout = errors.New("deadline exceeded")

// TimeoutError reports that a caller stopped waiting for a computation.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s", e.Timeout)
}

// Is makes errors.Is(err, ErrTimeout) true for any *TimeoutError.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// PanicError carries a panic recovered from a guarded computation together
// with the stack of the goroutine that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error, so that
// runtime errors such as integer division by zero stay matchable.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Format prints the panic stack for %+v.
func (e *PanicError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s\n\n%s", e.Error(), e.Stack)
			return
		}
		io.WriteString(s, e.Error())
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// Worker states for detached accounting.
const (
	stateRunning int32 = iota
	stateFinished
	stateAbandoned
)

var detached atomic.Int64

// Detached returns the number of computations whose callers gave up waiting
// but which have not returned yet.
func Detached() int64 {
	return detached.Load()
}

type outcome[T any] struct {
	value T
	err   error
	at    time.Time
}

// WithTimeout runs fn on its own goroutine and waits at most timeout for it.
//
// A result produced strictly before the deadline is returned unchanged, error
// included. Otherwise WithTimeout returns a *TimeoutError. A non-positive
// timeout fails immediately without starting fn. Panics in fn are recovered
// and returned as *PanicError. If ctx ends first, ctx.Err() is returned.
//
// The context passed to fn is cancelled as soon as WithTimeout returns.
// Goroutines cannot be killed, so fn keeps running until it observes that
// cancellation or finishes by itself; Detached counts such computations.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if timeout <= 0 {
		return zero, &TimeoutError{Timeout: timeout}
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	deadline := time.Now().Add(timeout)
	runCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var state atomic.Int32
	done := make(chan outcome[T], 1)

	go func() {
		var out outcome[T]
		defer func() {
			if r := recover(); r != nil {
				out = outcome[T]{err: &PanicError{Value: r, Stack: debug.Stack()}}
			}
			out.at = time.Now()
			if !state.CompareAndSwap(stateRunning, stateFinished) {
				detached.Add(-1)
			}
			done <- out
		}()
		out.value, out.err = fn(runCtx)
	}()

	abandon := func() {
		detached.Add(1)
		if !state.CompareAndSwap(stateRunning, stateAbandoned) {
			detached.Add(-1)
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.at.Before(deadline) {
			return out.value, out.err
		}
		return zero, &TimeoutError{Timeout: timeout}
	case <-timer.C:
		select {
		case out := <-done:
			if out.at.Before(deadline) {
				return out.value, out.err
			}
		default:
			abandon()
		}
		return zero, &TimeoutError{Timeout: timeout}
	case <-ctx.Done():
		abandon()
		return zero, ctx.Err()
	}
}
