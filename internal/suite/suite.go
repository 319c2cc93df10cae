// Package suite loads benchmark suites from YAML (or JSON) files.
//
// A suite file looks like:
//
//	name: smoke
//	timeout_s: 30
//	benchmarks:
//	  - name: sleep-short
//	    workload: sleep
//	    workload_params: {duration: 10ms}
//	    repeat: 3
package suite

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/seantiz/tempo/internal/model"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid suite")

// Suite is a named list of benchmarks.
type Suite struct {
	Name       string             `yaml:"name" json:"name"`
	TimeoutS   float64            `yaml:"timeout_s" json:"timeout_s,omitempty"`
	Benchmarks []model.Descriptor `yaml:"benchmarks" json:"benchmarks"`
}

// Load reads and validates the suite at path. A suite without a name is
// named after its file.
func Load(path string) (*Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open suite: %w", err)
	}
	defer f.Close()

	s, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a suite from r.
func Parse(r io.Reader) (*Suite, error) {
	s, err := decode(r)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func decode(r io.Reader) (*Suite, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Suite
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("parse suite: %w", err)
	}
	return &s, nil
}

// Validate checks the suite and fills in defaults: repeat becomes 1 when
// unset and the suite timeout is copied to benchmarks without their own.
func (s *Suite) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if s.TimeoutS < 0 {
		errs = append(errs, fmt.Errorf("timeout_s must not be negative, got %v", s.TimeoutS))
	}
	if len(s.Benchmarks) == 0 {
		errs = append(errs, errors.New("at least one benchmark is required"))
	}

	seen := make(map[string]bool, len(s.Benchmarks))
	for i := range s.Benchmarks {
		b := &s.Benchmarks[i]
		where := fmt.Sprintf("benchmarks[%d]", i)
		if b.Name != "" {
			where = fmt.Sprintf("benchmark %q", b.Name)
		}

		switch {
		case b.Name == "":
			errs = append(errs, fmt.Errorf("%s: name is required", where))
		case seen[b.Name]:
			errs = append(errs, fmt.Errorf("%s: duplicate name", where))
		}
		seen[b.Name] = true

		if b.Workload == "" {
			errs = append(errs, fmt.Errorf("%s: workload is required", where))
		}
		if b.Repeat < 0 {
			errs = append(errs, fmt.Errorf("%s: repeat must not be negative, got %d", where, b.Repeat))
		}
		if b.TimeoutS < 0 {
			errs = append(errs, fmt.Errorf("%s: timeout_s must not be negative, got %v", where, b.TimeoutS))
		}

		if b.Repeat == 0 {
			b.Repeat = 1
		}
		if b.TimeoutS == 0 {
			b.TimeoutS = s.TimeoutS
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Size returns the number of runs the suite expands to.
func (s *Suite) Size() int {
	n := 0
	for _, b := range s.Benchmarks {
		n += max(b.Repeat, 1)
	}
	return n
}
