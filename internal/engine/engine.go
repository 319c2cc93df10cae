package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seantiz/tempo/internal/benchmark"
	"github.com/seantiz/tempo/internal/model"
	"github.com/seantiz/tempo/internal/registry"
	"github.com/seantiz/tempo/internal/store"
	"github.com/seantiz/tempo/internal/suite"
)

// Engine runs benchmarks and records their lifecycle in the store:
// pending → running → success | timeout | failure.
type Engine struct {
	store    store.Store
	registry *registry.Registry
	executor *benchmark.Executor
	logger   *slog.Logger
	wg       sync.WaitGroup
	broker   *EventBroker
}

// NewEngine creates a new execution engine.
func NewEngine(s store.Store, reg *registry.Registry, exec *benchmark.Executor, logger *slog.Logger) *Engine {
	return &Engine{
		store:    s,
		registry: reg,
		executor: exec,
		logger:   logger,
		broker:   NewEventBroker(),
	}
}

// Broker returns the engine's event broker for SSE subscription.
func (e *Engine) Broker() *EventBroker {
	return e.broker
}

// Registry returns the registry the engine resolves descriptors with.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// DefaultTimeout is the deadline for benchmarks that set none.
func (e *Engine) DefaultTimeout() time.Duration {
	return e.executor.DefaultTimeout()
}

// Run records and executes the index-th repetition of desc, blocking until
// it finishes. Unknown workload or environment names are rejected before
// anything is recorded. The returned run is in a terminal status; a
// benchmark failure is not an error.
func (e *Engine) Run(ctx context.Context, suiteName string, desc model.Descriptor, index int) (*model.Run, error) {
	if err := e.registry.Check(desc); err != nil {
		return nil, err
	}
	timeout := e.timeoutFor(desc, 0)
	run, err := e.record(ctx, suiteName, desc, index, timeout)
	if err != nil {
		return nil, err
	}
	return e.execute(ctx, run, desc, timeout), nil
}

// Submit records a pending run of desc and executes it on its own goroutine.
// The caller receives the pending record immediately.
func (e *Engine) Submit(ctx context.Context, suiteName string, desc model.Descriptor) (*model.Run, error) {
	if err := e.registry.Check(desc); err != nil {
		return nil, err
	}
	timeout := e.timeoutFor(desc, 0)
	run, err := e.record(ctx, suiteName, desc, 0, timeout)
	if err != nil {
		return nil, err
	}

	runCopy := *run
	e.wg.Go(func() {
		e.execute(context.Background(), &runCopy, desc, timeout)
	})

	return run, nil
}

// Wait blocks until all submitted runs complete.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// SuiteOptions controls RunSuite.
type SuiteOptions struct {
	// Parallelism bounds how many benchmarks run at once. Values below 1
	// mean one at a time.
	Parallelism int
	// SkipFinished reuses the latest finished run with the same key instead
	// of running the benchmark again.
	SkipFinished bool
	// Timeout applies to benchmarks that do not set their own. Zero means
	// the engine default.
	Timeout time.Duration
}

// RunSuite expands every benchmark of s into its repetitions and runs them,
// returning one run per repetition in suite order. Benchmark failures and
// timeouts are recorded results, not errors: the suite always runs to the
// end unless ctx is cancelled or the store fails.
func (e *Engine) RunSuite(ctx context.Context, s *suite.Suite, opts SuiteOptions) ([]*model.Run, error) {
	for _, desc := range s.Benchmarks {
		if err := e.registry.Check(desc); err != nil {
			return nil, fmt.Errorf("benchmark %q: %w", desc.Name, err)
		}
	}

	type job struct {
		desc  model.Descriptor
		index int
	}
	var jobs []job
	for _, desc := range s.Benchmarks {
		for i := 0; i < max(desc.Repeat, 1); i++ {
			jobs = append(jobs, job{desc: desc, index: i})
		}
	}

	runs := make([]*model.Run, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Parallelism, 1))

	for i, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if opts.SkipFinished {
				prev, err := e.store.FindFinished(gctx, j.desc.Key(j.index))
				switch {
				case err == nil:
					e.logger.Info("skipping finished benchmark", "benchmark", j.desc.Name, "index", j.index, "run_id", prev.ID)
					runs[i] = prev
					return nil
				case !errors.Is(err, store.ErrNotFound):
					return err
				}
			}

			timeout := e.timeoutFor(j.desc, opts.Timeout)
			run, err := e.record(gctx, s.Name, j.desc, j.index, timeout)
			if err != nil {
				return err
			}
			runs[i] = e.execute(gctx, run, j.desc, timeout)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// timeoutFor picks the deadline for desc: its own timeout, then the suite
// option, then the engine default.
func (e *Engine) timeoutFor(desc model.Descriptor, suiteTimeout time.Duration) time.Duration {
	if t := desc.Timeout(); t > 0 {
		return t
	}
	if suiteTimeout > 0 {
		return suiteTimeout
	}
	return e.executor.DefaultTimeout()
}

// record stores a pending run for the index-th repetition of desc.
func (e *Engine) record(ctx context.Context, suiteName string, desc model.Descriptor, index int, timeout time.Duration) (*model.Run, error) {
	params, err := desc.ParamsJSON()
	if err != nil {
		return nil, err
	}
	env := desc.Environment
	if env == "" {
		env = registry.DefaultEnvironment
	}

	now := time.Now().UTC()
	run := &model.Run{
		ID:          model.NewIDAt(now),
		Suite:       suiteName,
		Key:         desc.Key(index),
		Name:        desc.Name,
		Workload:    desc.Workload,
		Environment: env,
		Params:      params,
		Index:       index,
		Status:      model.StatusPending,
		TimeoutS:    timeout.Seconds(),
		CreatedAt:   now,
	}
	if err := e.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// execute drives a pending run to a terminal status and persists it. Events
// are written to the store for history and published to the broker for
// live subscribers.
func (e *Engine) execute(ctx context.Context, run *model.Run, desc model.Descriptor, timeout time.Duration) *model.Run {
	defer e.broker.Close(run.ID)

	// Records must land even if the caller has gone away.
	persistCtx := context.WithoutCancel(ctx)
	logger := e.logger.With("run_id", run.ID, "benchmark", run.Name, "workload", run.Workload)

	var seq atomic.Int32
	emit := func(line string) {
		n := int(seq.Add(1) - 1)
		if err := e.store.InsertEvent(persistCtx, run.ID, n, line); err != nil {
			logger.Error("failed to persist event", "seq", n, "error", err)
		}
		e.broker.Publish(run.ID, line)
	}

	inst, err := e.registry.Materialize(desc)
	if err != nil {
		res := benchmark.Failure{Err: err, Traceback: benchmark.Traceback(err)}
		emit(fmt.Sprintf("outcome: %v", res))
		return e.finish(persistCtx, logger, run, nil, res)
	}

	if err := e.store.UpdateRunStatus(persistCtx, run.ID, model.StatusRunning); err != nil {
		logger.Error("failed to transition to running", "error", err)
		return e.finish(persistCtx, logger, run, nil, benchmark.Failure{
			Err:       err,
			Traceback: benchmark.Traceback(err),
		})
	}
	start := time.Now().UTC()

	emit(fmt.Sprintf("entering environment %s", run.Environment))
	inst.Workload = notifyingWorkload{Workload: inst.Workload, started: func() {
		emit(fmt.Sprintf("workload %s started (timeout %s)", run.Workload, timeout))
	}}

	res := e.executor.ExecuteWithTimeout(benchmark.WithProgress(ctx, emit), inst, timeout)
	emit(fmt.Sprintf("outcome: %v", res))

	return e.finish(persistCtx, logger, run, &start, res)
}

// finish writes the terminal record for run from res. startedAt is nil when
// the run never reached running.
func (e *Engine) finish(ctx context.Context, logger *slog.Logger, run *model.Run, startedAt *time.Time, res benchmark.Result) *model.Run {
	now := time.Now().UTC()
	final := *run
	final.StartedAt = startedAt
	final.FinishedAt = &now

	switch r := res.(type) {
	case benchmark.Success:
		secs := r.Duration.Seconds()
		final.Status = model.StatusSuccess
		final.DurationS = &secs
	case benchmark.Timeout:
		final.Status = model.StatusTimeout
		final.Error = fmt.Sprintf("timed out after %s", r.Timeout)
	case benchmark.Failure:
		final.Status = model.StatusFailure
		if r.Err != nil {
			final.Error = r.Err.Error()
		}
		final.Traceback = r.Traceback
	}

	if err := e.store.UpdateRun(ctx, &final); err != nil {
		logger.Error("failed to record run result", "status", final.Status, "error", err)
	}
	logger.Info("benchmark finished", "outcome", final.Status, "index", final.Index)
	return &final
}

// notifyingWorkload calls started just before the wrapped workload runs.
type notifyingWorkload struct {
	benchmark.Workload
	started func()
}

func (w notifyingWorkload) Execute(ctx context.Context, env benchmark.Environment, params benchmark.Params) (benchmark.WorkloadResult, error) {
	w.started()
	return w.Workload.Execute(ctx, env, params)
}
