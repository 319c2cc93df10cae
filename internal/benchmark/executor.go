package benchmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/seantiz/tempo/internal/timing"
)

// DefaultTimeout is the deadline applied when a caller does not choose one.
const DefaultTimeout = 180 * time.Second

// Executor runs benchmark instances. It holds no per-run state, so one
// Executor may serve concurrent calls as long as each call has its own
// Environment. The zero value logs to slog.Default and uses DefaultTimeout.
type Executor struct {
	logger  *slog.Logger
	timeout time.Duration
}

// NewExecutor creates an executor that uses DefaultTimeout. A nil logger
// means slog.Default.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{logger: logger, timeout: DefaultTimeout}
}

// WithDefaultTimeout returns a copy of the executor whose Execute uses d.
func (e *Executor) WithDefaultTimeout(d time.Duration) *Executor {
	cp := *e
	cp.timeout = d
	return &cp
}

// DefaultTimeout returns the deadline Execute applies.
func (e *Executor) DefaultTimeout() time.Duration {
	if e.timeout <= 0 {
		return DefaultTimeout
	}
	return e.timeout
}

// Execute runs inst with the executor's default deadline.
func (e *Executor) Execute(ctx context.Context, inst Instance) Result {
	return e.ExecuteWithTimeout(ctx, inst, e.DefaultTimeout())
}

func (e *Executor) log() *slog.Logger {
	if e.logger == nil {
		return slog.Default()
	}
	return e.logger
}

// ExecuteWithTimeout enters the instance's environment, runs the workload
// through timing.WithTimeout and exits the environment, in that order. It
// never panics and never returns an error: every outcome becomes a Result.
//
// An error from Exit turns the result into a Failure even when the workload
// succeeded or timed out. Exit is skipped only when Enter failed.
func (e *Executor) ExecuteWithTimeout(ctx context.Context, inst Instance, timeout time.Duration) (res Result) {
	name := workloadName(inst.Workload)
	start := time.Now()
	inFlight.Inc()
	defer func() {
		inFlight.Dec()
		observe(name, res)
		e.log().Debug("benchmark executed",
			"workload", name,
			"outcome", res.Outcome(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}()

	if inst.Environment == nil {
		return newFailure(errors.New("benchmark has no environment"))
	}
	if inst.Workload == nil {
		return newFailure(errors.New("benchmark has no workload"))
	}

	if err := protect(func() error { return inst.Environment.Enter(ctx) }); err != nil {
		return newFailure(fmt.Errorf("enter environment: %w", err))
	}
	defer func() {
		// Teardown runs even when the caller's context is already done.
		exitCtx := context.WithoutCancel(ctx)
		if err := protect(func() error { return inst.Environment.Exit(exitCtx) }); err != nil {
			e.log().Warn("environment exit failed", "workload", name, "error", err)
			res = withExitError(res, fmt.Errorf("exit environment: %w", err))
		}
	}()

	params := inst.Params.Clone()
	result, err := timing.WithTimeout(ctx, timeout, func(ctx context.Context) (WorkloadResult, error) {
		return inst.Workload.Execute(ctx, inst.Environment, params)
	})
	switch {
	case err == nil:
		return Success{Duration: result.Duration}
	case errors.Is(err, timing.ErrTimeout):
		return Timeout{Timeout: timeout}
	default:
		return newFailure(err)
	}
}

func workloadName(w Workload) string {
	if w == nil {
		return "unknown"
	}
	return w.Name()
}

// protect converts a panic in fn into a *timing.PanicError.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &timing.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

func withExitError(res Result, exitErr error) Result {
	if f, ok := res.(Failure); ok {
		return Failure{
			Err:       errors.Join(f.Err, exitErr),
			Traceback: f.Traceback + "\n\nduring environment exit:\n" + Traceback(exitErr),
		}
	}
	return newFailure(exitErr)
}

func newFailure(err error) Failure {
	return Failure{Err: err, Traceback: Traceback(err)}
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// Traceback formats err followed by the stack closest to where it happened:
// the panic site for recovered panics, the creation site for errors built
// with github.com/pkg/errors, and otherwise the caller of Traceback.
func Traceback(err error) string {
	if err == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(err.Error())

	var pe *timing.PanicError
	var st stackTracer
	switch {
	case errors.As(err, &pe):
		b.WriteString("\n\n")
		b.Write(pe.Stack)
	case errors.As(err, &st):
		fmt.Fprintf(&b, "%+v", st.StackTrace())
	default:
		fmt.Fprintf(&b, "%+v", pkgerrors.WithStack(err).(stackTracer).StackTrace())
	}
	return b.String()
}
