package environment

import "context"

// Noop does nothing on enter or exit.
type Noop struct{}

func (Noop) Enter(context.Context) error { return nil }
func (Noop) Exit(context.Context) error  { return nil }
