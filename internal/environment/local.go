package environment

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/seantiz/tempo/internal/benchmark"
)

// Local gives each run a fresh temporary work directory. The optional `dir`
// parameter chooses the parent directory.
type Local struct {
	parent  string
	workDir string
	logger  *slog.Logger
}

// NewLocal builds a Local environment from its parameters.
func NewLocal(params benchmark.Params, logger *slog.Logger) (*Local, error) {
	return &Local{parent: params.String("dir", ""), logger: logger}, nil
}

// Enter creates the work directory.
func (l *Local) Enter(ctx context.Context) error {
	dir, err := os.MkdirTemp(l.parent, "tempo-*")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	l.workDir = dir
	benchmark.Reportf(ctx, "work dir %s", dir)
	l.logger.Debug("environment entered", "environment", "local", "dir", dir)
	return nil
}

// Exit removes the work directory and everything in it.
func (l *Local) Exit(context.Context) error {
	if l.workDir == "" {
		return nil
	}
	if err := os.RemoveAll(l.workDir); err != nil {
		return fmt.Errorf("remove work dir: %w", err)
	}
	l.logger.Debug("environment exited", "environment", "local", "dir", l.workDir)
	l.workDir = ""
	return nil
}

// WorkDir returns the directory created by Enter.
func (l *Local) WorkDir() string {
	return l.workDir
}
