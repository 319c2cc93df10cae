package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/seantiz/tempo/internal/benchmark"
	"github.com/seantiz/tempo/internal/model"
)

// DefaultEnvironment is used when a descriptor names no environment.
const DefaultEnvironment = "local"

var (
	// ErrUnknownWorkload is returned when a descriptor names an unregistered workload.
	ErrUnknownWorkload = errors.New("unknown workload")
	// ErrUnknownEnvironment is returned when a descriptor names an unregistered environment.
	ErrUnknownEnvironment = errors.New("unknown environment")
)

// EnvironmentFactory builds a fresh environment from its parameters.
// Environments hold per-run state, so every execution gets its own.
type EnvironmentFactory func(params benchmark.Params) (benchmark.Environment, error)

// Info describes one registered workload or environment.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Catalog lists everything a descriptor may refer to.
type Catalog struct {
	Workloads    []Info `json:"workloads"`
	Environments []Info `json:"environments"`
}

type workloadEntry struct {
	workload    benchmark.Workload
	description string
}

type environmentEntry struct {
	factory     EnvironmentFactory
	description string
}

// Registry holds registered workloads and environment factories.
// It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	workloads    map[string]workloadEntry
	environments map[string]environmentEntry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		workloads:    make(map[string]workloadEntry),
		environments: make(map[string]environmentEntry),
	}
}

// RegisterWorkload adds w under its own name, replacing any previous entry.
func (r *Registry) RegisterWorkload(w benchmark.Workload, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workloads[w.Name()] = workloadEntry{workload: w, description: description}
}

// RegisterEnvironment adds an environment factory under name.
func (r *Registry) RegisterEnvironment(name string, f EnvironmentFactory, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.environments[name] = environmentEntry{factory: f, description: description}
}

// Workload returns the workload registered under name.
func (r *Registry) Workload(name string) (benchmark.Workload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.workloads[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorkload, name)
	}
	return e.workload, nil
}

// NewEnvironment builds a fresh environment registered under name. An empty
// name selects DefaultEnvironment.
func (r *Registry) NewEnvironment(name string, params benchmark.Params) (benchmark.Environment, error) {
	if name == "" {
		name = DefaultEnvironment
	}

	r.mu.RLock()
	e, ok := r.environments[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEnvironment, name)
	}

	env, err := e.factory(params)
	if err != nil {
		return nil, fmt.Errorf("build environment %q: %w", name, err)
	}
	return env, nil
}

// Check reports whether every name in desc is registered, without building
// anything.
func (r *Registry) Check(desc model.Descriptor) error {
	if _, err := r.Workload(desc.Workload); err != nil {
		return err
	}
	name := desc.Environment
	if name == "" {
		name = DefaultEnvironment
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.environments[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEnvironment, name)
	}
	return nil
}

// Materialize resolves a descriptor into an executable instance with its own
// environment.
func (r *Registry) Materialize(desc model.Descriptor) (benchmark.Instance, error) {
	w, err := r.Workload(desc.Workload)
	if err != nil {
		return benchmark.Instance{}, err
	}
	env, err := r.NewEnvironment(desc.Environment, benchmark.Params(desc.EnvironmentParams))
	if err != nil {
		return benchmark.Instance{}, err
	}
	return benchmark.Instance{
		Environment: env,
		Workload:    w,
		Params:      benchmark.Params(desc.WorkloadParams),
	}, nil
}

// List returns the catalog, sorted by name for a stable API response.
func (r *Registry) List() Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cat := Catalog{
		Workloads:    make([]Info, 0, len(r.workloads)),
		Environments: make([]Info, 0, len(r.environments)),
	}
	for name, e := range r.workloads {
		cat.Workloads = append(cat.Workloads, Info{Name: name, Description: e.description})
	}
	for name, e := range r.environments {
		cat.Environments = append(cat.Environments, Info{Name: name, Description: e.description})
	}
	sort.Slice(cat.Workloads, func(i, j int) bool {
		return cat.Workloads[i].Name < cat.Workloads[j].Name
	})
	sort.Slice(cat.Environments, func(i, j int) bool {
		return cat.Environments[i].Name < cat.Environments[j].Name
	})
	return cat
}
