package settings

import "context"

type runKey struct{}

// IntoContext attaches the resolved run configuration to ctx so commands and
// the loggers they create read the same flags.
func IntoContext(ctx context.Context, r *Run) context.Context {
	return context.WithValue(ctx, runKey{}, r)
}

// FromContext returns the run configuration set by IntoContext.
func FromContext(ctx context.Context) (*Run, bool) {
	r, ok := ctx.Value(runKey{}).(*Run)
	return r, ok
}
