package environment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/seantiz/tempo/internal/benchmark"
	"github.com/seantiz/tempo/internal/wait"
)

const (
	defaultReadyTimeout  = 30 * time.Second
	defaultReadyInterval = 100 * time.Millisecond
	defaultStopTimeout   = 5 * time.Second

	// processLogName is the file in the work directory that receives the
	// process's combined output.
	processLogName = "process.log"
)

// Process runs a background program for the lifetime of one benchmark, such
// as a server the workload talks to.
//
// Parameters: `args` (required), `env` (KEY=VALUE list), `ready_file` (path
// relative to the work directory whose existence signals readiness),
// `ready_addr` (host:port that must accept TCP connections), `ready_timeout`,
// `stop_timeout` and `dir` (parent of the work directory).
type Process struct {
	args          []string
	env           []string
	readyFile     string
	readyAddr     string
	readyTimeout  time.Duration
	readyInterval time.Duration
	stopTimeout   time.Duration
	parent        string
	logger        *slog.Logger

	workDir string
	cmd     *exec.Cmd
	exited  chan struct{}
	waitErr error
}

// NewProcess validates params and builds a Process environment.
func NewProcess(params benchmark.Params, logger *slog.Logger) (*Process, error) {
	args, err := params.Strings("args")
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, errors.New("process: args is required")
	}
	env, err := params.Strings("env")
	if err != nil {
		return nil, err
	}
	readyTimeout, err := params.Duration("ready_timeout", defaultReadyTimeout)
	if err != nil {
		return nil, err
	}
	stopTimeout, err := params.Duration("stop_timeout", defaultStopTimeout)
	if err != nil {
		return nil, err
	}

	return &Process{
		args:          args,
		env:           env,
		readyFile:     params.String("ready_file", ""),
		readyAddr:     params.String("ready_addr", ""),
		readyTimeout:  readyTimeout,
		readyInterval: defaultReadyInterval,
		stopTimeout:   stopTimeout,
		parent:        params.String("dir", ""),
		logger:        logger,
	}, nil
}

// Enter creates a work directory, starts the process in it and waits until
// the process is ready. On any error the process is stopped and the
// directory removed before returning.
func (p *Process) Enter(ctx context.Context) (err error) {
	dir, err := os.MkdirTemp(p.parent, "tempo-proc-*")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	p.workDir = dir
	defer func() {
		if err != nil {
			if cleanupErr := p.Exit(context.WithoutCancel(ctx)); cleanupErr != nil {
				p.logger.Warn("cleanup after failed enter", "environment", "process", "error", cleanupErr)
			}
		}
	}()

	logFile, err := os.Create(filepath.Join(dir, processLogName))
	if err != nil {
		return fmt.Errorf("create process log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(p.args[0], p.args[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), p.env...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.args[0], err)
	}
	p.cmd = cmd
	p.exited = make(chan struct{})
	go func() {
		p.waitErr = cmd.Wait()
		close(p.exited)
	}()

	benchmark.Reportf(ctx, "started %s (pid %d)", p.args[0], cmd.Process.Pid)
	p.logger.Info("process started", "environment", "process", "pid", cmd.Process.Pid, "dir", dir)

	if p.readyFile == "" && p.readyAddr == "" {
		return nil
	}
	if err := wait.Until(ctx, p.readyInterval, p.readyTimeout, p.ready); err != nil {
		return fmt.Errorf("wait for process readiness: %w", err)
	}
	benchmark.Reportf(ctx, "process ready")
	return nil
}

// ready reports whether every configured readiness condition holds. A
// process that already exited ends the wait.
func (p *Process) ready(ctx context.Context) (bool, error) {
	select {
	case <-p.exited:
		return false, wait.Abort(fmt.Errorf("process exited before becoming ready: %v", p.waitErr))
	default:
	}

	if p.readyFile != "" {
		if _, err := os.Stat(filepath.Join(p.workDir, p.readyFile)); err != nil {
			return false, err
		}
	}
	if p.readyAddr != "" {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", p.readyAddr)
		if err != nil {
			return false, err
		}
		conn.Close()
	}
	return true, nil
}

// Exit stops the process group, escalating to a kill after stop_timeout, and
// removes the work directory.
func (p *Process) Exit(context.Context) error {
	var errs []error
	if p.cmd != nil {
		if err := p.stop(); err != nil {
			errs = append(errs, err)
		}
		p.cmd = nil
	}
	if p.workDir != "" {
		if err := os.RemoveAll(p.workDir); err != nil {
			errs = append(errs, fmt.Errorf("remove work dir: %w", err))
		}
		p.workDir = ""
	}
	return errors.Join(errs...)
}

func (p *Process) stop() error {
	select {
	case <-p.exited:
		return nil
	default:
	}

	if err := terminateProcessGroup(p.cmd); err != nil {
		p.logger.Warn("terminate process", "environment", "process", "error", err)
	}

	timer := time.NewTimer(p.stopTimeout)
	defer timer.Stop()
	select {
	case <-p.exited:
		p.logger.Info("process stopped", "environment", "process")
		return nil
	case <-timer.C:
	}

	if err := killProcessGroup(p.cmd); err != nil {
		return fmt.Errorf("kill process: %w", err)
	}
	<-p.exited
	p.logger.Warn("process killed after stop timeout", "environment", "process", "stop_timeout", p.stopTimeout)
	return nil
}

// WorkDir returns the directory the process runs in.
func (p *Process) WorkDir() string {
	return p.workDir
}
