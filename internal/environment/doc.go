// Package environment provides the built-in benchmark environments: local
// (a scratch work directory), process (a background server started before
// the workload and stopped after it) and noop.
package environment
