package bootstrap

import "context"

// Warmup prepares a dependency before the bot starts serving updates.
type Warmup interface {
	Name() string
	Warm(ctx context.Context) error
}

// WarmupFunc adapts a bare function to the Warmup interface.
type WarmupFunc struct {
	Label string
	// Required warmups abort startup once retries are exhausted.
	Required bool
	Fn       func(ctx context.Context) error
}

// Name returns the label used in logs.
func (w WarmupFunc) Name() string { return w.Label }

// Warm executes the underlying function.
func (w WarmupFunc) Warm(ctx context.Context) error {
	if w.Fn == nil {
		return nil
	}
	return w.Fn(ctx)
}

// IsRequired reports whether a failed warmup must abort startup.
func (w WarmupFunc) IsRequired() bool { return w.Required }

type requirer interface{ IsRequired() bool }

func isRequired(w Warmup) bool {
	r, ok := w.(requirer)
	return ok && r.IsRequired()
}
