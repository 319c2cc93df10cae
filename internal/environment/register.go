package environment

import (
	"log/slog"

	"github.com/seantiz/tempo/internal/benchmark"
	"github.com/seantiz/tempo/internal/registry"
)

// Register installs the built-in environments.
func Register(reg *registry.Registry, logger *slog.Logger) {
	reg.RegisterEnvironment("local", func(p benchmark.Params) (benchmark.Environment, error) {
		return NewLocal(p, logger)
	}, "scratch work directory, removed on exit")
	reg.RegisterEnvironment("process", func(p benchmark.Params) (benchmark.Environment, error) {
		return NewProcess(p, logger)
	}, "background process started before the workload and stopped after it")
	reg.RegisterEnvironment("noop", func(benchmark.Params) (benchmark.Environment, error) {
		return Noop{}, nil
	}, "no setup or teardown")
}
