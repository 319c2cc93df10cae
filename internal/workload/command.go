package workload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/seantiz/tempo/internal/benchmark"
	"github.com/seantiz/tempo/internal/timing"
)

const (
	// maxOutputTail bounds how much command output an error message carries.
	maxOutputTail = 4096
	pipeGrace     = time.Second
)

// Command runs an external program. Parameters: `args` (required, list or
// whitespace-separated string) and `env` (list of KEY=VALUE). Output lines
// are reported as progress. A non-zero exit status is an error.
type Command struct{}

func (Command) Name() string { return "command" }

func (Command) Execute(ctx context.Context, env benchmark.Environment, params benchmark.Params) (benchmark.WorkloadResult, error) {
	args, err := params.Strings("args")
	if err != nil {
		return benchmark.WorkloadResult{}, err
	}
	if len(args) == 0 {
		return benchmark.WorkloadResult{}, errors.New("command: args is required")
	}
	extraEnv, err := params.Strings("env")
	if err != nil {
		return benchmark.WorkloadResult{}, err
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if wd, ok := env.(benchmark.WorkDirer); ok {
		cmd.Dir = wd.WorkDir()
	}
	cmd.Env = append(os.Environ(), extraEnv...)
	// Cancellation kills the whole group, background children included.
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	// Once the program exits, output still held open by its children gets
	// this long to drain before Wait closes the pipe.
	cmd.WaitDelay = pipeGrace

	out := &lineWriter{report: func(line string) { benchmark.Reportf(ctx, "%s", line) }}
	cmd.Stdout = out
	cmd.Stderr = out

	elapsed, err := timing.Measure(func() error {
		if err := cmd.Run(); err != nil && !errors.Is(err, exec.ErrWaitDelay) {
			return err
		}
		return nil
	})
	out.flush()

	result := benchmark.WorkloadResult{
		Duration: elapsed,
		Metadata: map[string]string{"exit_code": strconv.Itoa(cmd.ProcessState.ExitCode())},
	}
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		return result, fmt.Errorf("%s: %w\n%s", args[0], err, tail(out.String(), maxOutputTail))
	}
	return result, nil
}

// lineWriter reports every complete line written to it and keeps the whole
// output. Stdout and stderr share one lineWriter.
type lineWriter struct {
	report func(string)

	mu      sync.Mutex
	partial []byte
	output  strings.Builder
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.output.Write(p)
	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		w.report(strings.TrimSuffix(string(w.partial[:i]), "\r"))
		w.partial = w.partial[i+1:]
	}
	return len(p), nil
}

// flush reports a trailing line without a newline.
func (w *lineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.partial) > 0 {
		w.report(string(w.partial))
		w.partial = nil
	}
}

func (w *lineWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.output.String()
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
