// Package timing bounds how long a caller waits for arbitrary, possibly
// blocking or panicking, computations and measures how long work takes.
package timing
