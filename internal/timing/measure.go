package timing

import (
	"sort"
	"sync"
	"time"
)

// Measure runs fn and returns its wall-clock duration along with its error.
func Measure(fn func() error) (time.Duration, error) {
	start := time.Now()
	err := fn()
	return time.Since(start), err
}

// Timings records the duration of named phases. It is safe for concurrent use.
type Timings struct {
	mu        sync.Mutex
	durations map[string]time.Duration
}

// NewTimings creates an empty set of phase timings.
func NewTimings() *Timings {
	return &Timings{durations: make(map[string]time.Duration)}
}

// Time measures fn and adds its duration to the named phase. The duration is
// recorded even when fn fails.
func (t *Timings) Time(name string, fn func() error) error {
	d, err := Measure(fn)
	t.mu.Lock()
	t.durations[name] += d
	t.mu.Unlock()
	return err
}

// Get returns the accumulated duration of a phase.
func (t *Timings) Get(name string) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.durations[name]
	return d, ok
}

// Names returns the recorded phase names in sorted order.
func (t *Timings) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.durations))
	for name := range t.durations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
