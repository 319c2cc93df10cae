// Package workload provides the built-in benchmark workloads: sleep, compute,
// command and fail.
package workload
