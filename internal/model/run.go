package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Run status constants. The three terminal statuses mirror the executor's
// result variants.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusTimeout = "timeout"
	StatusFailure = "failure"
)

// validTransitions maps each status to the set of statuses it may transition to.
var validTransitions = map[string]map[string]bool{
	StatusPending: {
		StatusRunning: true,
		StatusFailure: true,
	},
	StatusRunning: {
		StatusSuccess: true,
		StatusTimeout: true,
		StatusFailure: true,
	},
}

// ValidTransition reports whether transitioning from one status to another is allowed.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// IsTerminal reports whether a run in this status will not change again.
func IsTerminal(status string) bool {
	switch status {
	case StatusSuccess, StatusTimeout, StatusFailure:
		return true
	}
	return false
}

// Descriptor is the serializable definition of one benchmark: which workload
// to run, in which environment, with which parameters.
type Descriptor struct {
	Name              string         `json:"name" yaml:"name"`
	Workload          string         `json:"workload" yaml:"workload"`
	Environment       string         `json:"environment,omitempty" yaml:"environment"`
	WorkloadParams    map[string]any `json:"workload_params,omitempty" yaml:"workload_params"`
	EnvironmentParams map[string]any `json:"environment_params,omitempty" yaml:"environment_params"`
	Repeat            int            `json:"repeat,omitempty" yaml:"repeat"`
	TimeoutS          float64        `json:"timeout_s,omitempty" yaml:"timeout_s"`
}

// Timeout returns the descriptor's own deadline, or zero when unset.
func (d Descriptor) Timeout() time.Duration {
	return time.Duration(d.TimeoutS * float64(time.Second))
}

// ParamsJSON renders both parameter sets as one JSON document. Map keys are
// emitted in sorted order, so equal parameters always render the same.
func (d Descriptor) ParamsJSON() (json.RawMessage, error) {
	raw, err := json.Marshal(struct {
		Workload    map[string]any `json:"workload,omitempty"`
		Environment map[string]any `json:"environment,omitempty"`
	}{d.WorkloadParams, d.EnvironmentParams})
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	return raw, nil
}

// Key identifies the i-th repetition of this benchmark. Two descriptors with
// the same name, workload, environment and parameters produce the same key.
func (d Descriptor) Key(i int) string {
	raw, err := d.ParamsJSON()
	if err != nil {
		raw = []byte(fmt.Sprint(d.WorkloadParams, d.EnvironmentParams))
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%s/%s@%s/%s/%d", d.Name, d.Workload, d.Environment, hex.EncodeToString(sum[:8]), i)
}

// Event is a single persisted progress line from a run.
type Event struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Seq       int       `json:"seq"`
	Line      string    `json:"line"`
	CreatedAt time.Time `json:"created_at"`
}

// Run is the persisted record of one benchmark execution.
type Run struct {
	ID          string          `json:"id"`
	Suite       string          `json:"suite,omitempty"`
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Workload    string          `json:"workload"`
	Environment string          `json:"environment"`
	Params      json.RawMessage `json:"params,omitempty"`
	Index       int             `json:"index"`
	Status      string          `json:"status"`
	DurationS   *float64        `json:"duration_s,omitempty"`
	TimeoutS    float64         `json:"timeout_s"`
	Error       string          `json:"error,omitempty"`
	Traceback   string          `json:"traceback,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}
