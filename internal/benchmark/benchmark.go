package benchmark

import (
	"context"
	"time"
)

// Environment is a scoped resource a workload runs against. Enter prepares
// state; Exit releases it. When Enter fails the environment is responsible
// for undoing its own partial setup, because Exit is not called for an
// environment that never entered.
type Environment interface {
	Enter(ctx context.Context) error
	Exit(ctx context.Context) error
}

// WorkDirer is implemented by environments that provide a working directory
// for the workloads running in them.
type WorkDirer interface {
	WorkDir() string
}

// Workload is one kind of benchmarked work.
type Workload interface {
	// Name identifies the workload kind in results and metrics.
	Name() string

	// Execute runs the workload against an entered environment. The context is
	// cancelled when the executor stops waiting; long-running workloads should
	// watch it.
	Execute(ctx context.Context, env Environment, params Params) (WorkloadResult, error)
}

// WorkloadResult is produced by a workload. Duration is the workload's own
// measurement of its timed portion and is reported as-is.
type WorkloadResult struct {
	Duration time.Duration
	Metadata map[string]string
}

// Instance is one concrete benchmark: an environment, a workload and the
// parameters to call it with. The executor never mutates it.
type Instance struct {
	Environment Environment
	Workload    Workload
	Params      Params
}
