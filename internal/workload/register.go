package workload

import "github.com/seantiz/tempo/internal/registry"

// Register installs the built-in workloads.
func Register(reg *registry.Registry) {
	reg.RegisterWorkload(Sleep{}, "sleeps for `duration` (default 100ms)")
	reg.RegisterWorkload(Compute{}, "SHA-256 over a `size`-byte buffer, `iterations` times")
	reg.RegisterWorkload(Command{}, "runs `args` in the environment's work directory")
	reg.RegisterWorkload(Fail{}, "returns an error, panics or divides by zero")
}
