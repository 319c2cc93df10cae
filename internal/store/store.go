package store

import (
	"context"
	"errors"

	"github.com/seantiz/tempo/internal/model"
)

// ErrInvalidTransition is returned when a run status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// RunStats holds aggregate execution statistics.
type RunStats struct {
	Total           int            `json:"total"`
	CountByStatus   map[string]int `json:"count_by_status"`
	CountByWorkload map[string]int `json:"count_by_workload"`
	MeanSuccessS    float64        `json:"mean_success_s"`
}

// Store defines the persistence operations for benchmark runs.
type Store interface {
	CreateRun(ctx context.Context, r *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*model.Run, int, error)
	UpdateRunStatus(ctx context.Context, id, status string) error
	UpdateRun(ctx context.Context, r *model.Run) error
	FindFinished(ctx context.Context, key string) (*model.Run, error)
	GetRunStats(ctx context.Context) (*RunStats, error)
	InsertEvent(ctx context.Context, runID string, seq int, line string) error
	GetEvents(ctx context.Context, runID string) ([]model.Event, error)
	Ping(ctx context.Context) error
	Close() error
}
