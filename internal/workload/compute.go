package workload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/seantiz/tempo/internal/benchmark"
	"github.com/seantiz/tempo/internal/timing"
)

const (
	defaultComputeSize       = 1 << 20
	defaultComputeIterations = 100
)

// Compute hashes a buffer repeatedly. Each round hashes the previous digest
// into the head of the buffer, so rounds cannot be skipped.
type Compute struct{}

func (Compute) Name() string { return "compute" }

func (Compute) Execute(ctx context.Context, _ benchmark.Environment, params benchmark.Params) (benchmark.WorkloadResult, error) {
	size, err := params.Int("size", defaultComputeSize)
	if err != nil {
		return benchmark.WorkloadResult{}, err
	}
	iterations, err := params.Int("iterations", defaultComputeIterations)
	if err != nil {
		return benchmark.WorkloadResult{}, err
	}
	if size < sha256.Size || iterations < 1 {
		return benchmark.WorkloadResult{}, fmt.Errorf("size must be at least %d and iterations at least 1", sha256.Size)
	}

	buf := make([]byte, size)
	var sum [sha256.Size]byte
	elapsed, err := timing.Measure(func() error {
		for i := 0; i < iterations; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			sum = sha256.Sum256(buf)
			copy(buf, sum[:])
		}
		return nil
	})
	if err != nil {
		return benchmark.WorkloadResult{}, err
	}

	return benchmark.WorkloadResult{
		Duration: elapsed,
		Metadata: map[string]string{
			"digest":     hex.EncodeToString(sum[:]),
			"bytes":      strconv.Itoa(size * iterations),
			"iterations": strconv.Itoa(iterations),
		},
	}, nil
}
