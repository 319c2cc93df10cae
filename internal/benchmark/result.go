package benchmark

import (
	"fmt"
	"time"
)

// Outcome names a Result variant.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeTimeout Outcome = "timeout"
	OutcomeFailure Outcome = "failure"
)

// Result is the closed set of outcomes of one execution. The only
// implementations are Success, Timeout and Failure.
type Result interface {
	Outcome() Outcome
	isResult()
}

// Success means the workload finished within its deadline.
type Success struct {
	Duration time.Duration
}

// Timeout means the deadline passed before the workload finished.
type Timeout struct {
	Timeout time.Duration
}

// Failure means the workload or its environment returned an error or
// panicked. Traceback holds the error message followed by a formatted stack.
type Failure struct {
	Err       error
	Traceback string
}

func (Success) Outcome() Outcome { return OutcomeSuccess }
func (Timeout) Outcome() Outcome { return OutcomeTimeout }
func (Failure) Outcome() Outcome { return OutcomeFailure }

func (Success) isResult() {}
func (Timeout) isResult() {}
func (Failure) isResult() {}

func (s Success) String() string {
	return fmt.Sprintf("success (%s)", s.Duration)
}

func (t Timeout) String() string {
	return fmt.Sprintf("timeout (%s)", t.Timeout)
}

func (f Failure) String() string {
	if f.Err == nil {
		return "failure"
	}
	return fmt.Sprintf("failure: %v", f.Err)
}
