package benchmark

import (
	"context"
	"fmt"
)

type progressKey struct{}

// WithProgress returns a context that delivers progress lines reported by
// environments and workloads to fn. fn may be called from several goroutines.
func WithProgress(ctx context.Context, fn func(line string)) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// Reportf formats a progress line and hands it to the sink attached to ctx.
// Without a sink it does nothing.
func Reportf(ctx context.Context, format string, args ...any) {
	fn, ok := ctx.Value(progressKey{}).(func(string))
	if !ok || fn == nil {
		return
	}
	fn(fmt.Sprintf(format, args...))
}
