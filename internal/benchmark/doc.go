// Package benchmark defines the environment and workload contracts of a
// benchmark and the executor that runs one benchmark instance under a
// deadline, always releasing its environment and always returning exactly one
// classified Result (Success, Timeout or Failure).
package benchmark
