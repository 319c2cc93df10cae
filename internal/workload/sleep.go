package workload

import (
	"context"
	"fmt"
	"time"

	"github.com/seantiz/tempo/internal/benchmark"
	"github.com/seantiz/tempo/internal/timing"
)

const defaultSleep = 100 * time.Millisecond

// Sleep waits for the `duration` parameter and reports the time it slept.
type Sleep struct{}

func (Sleep) Name() string { return "sleep" }

func (Sleep) Execute(ctx context.Context, _ benchmark.Environment, params benchmark.Params) (benchmark.WorkloadResult, error) {
	d, err := params.Duration("duration", defaultSleep)
	if err != nil {
		return benchmark.WorkloadResult{}, err
	}
	if d < 0 {
		return benchmark.WorkloadResult{}, fmt.Errorf("negative duration %s", d)
	}

	elapsed, err := timing.Measure(func() error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		return benchmark.WorkloadResult{}, err
	}
	return benchmark.WorkloadResult{Duration: elapsed}, nil
}
