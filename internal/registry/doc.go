// Package registry maps workload and environment names, as they appear in
// suite files and API requests, to the implementations that run them. It
// turns a serializable model.Descriptor into a ready-to-execute
// benchmark.Instance.
package registry
