package workload

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/seantiz/tempo/internal/benchmark"
)

const defaultFailMessage = "workload failed"

// Fail exercises the failure path. With `panic: true` it panics with
// `message`; with a `divisor` parameter it divides by it, so a zero divisor
// is a runtime error; otherwise it returns `message` as an error.
type Fail struct{}

func (Fail) Name() string { return "fail" }

func (Fail) Execute(_ context.Context, _ benchmark.Environment, params benchmark.Params) (benchmark.WorkloadResult, error) {
	msg := params.String("message", defaultFailMessage)

	doPanic, err := params.Bool("panic", false)
	if err != nil {
		return benchmark.WorkloadResult{}, err
	}
	if doPanic {
		panic(msg)
	}

	if params.Has("divisor") {
		divisor, err := params.Int("divisor", 0)
		if err != nil {
			return benchmark.WorkloadResult{}, err
		}
		return benchmark.WorkloadResult{Metadata: map[string]string{
			"quotient": strconv.Itoa(100 / divisor),
		}}, nil
	}

	return benchmark.WorkloadResult{}, errors.New(msg)
}
