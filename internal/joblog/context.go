package joblog

import "context"

type ctxKey struct{}

// WithLog returns a copy of ctx carrying l.
func WithLog(ctx context.Context, l *Log) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the job log carried by ctx. Without one it returns a
// fresh, unattached log so callers never need a nil check.
func FromContext(ctx context.Context) *Log {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*Log); ok {
			return l
		}
	}
	return New("")
}
