// Package engine runs benchmarks and records their results. It materializes
// descriptors through the registry, executes them with the benchmark
// executor, persists every run and its progress events in the store, and
// streams progress to live subscribers.
package engine
