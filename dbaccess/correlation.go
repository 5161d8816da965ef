package dbaccess

import (
	"context"

	"github.com/google/uuid"
)

type correlationKey struct{}

// ContextWithCorrelationID attaches id to ctx, for logging and for
// backend calls that want to group all I/O from one DatabaseAccess
// operation.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFromContext returns the id attached by
// ContextWithCorrelationID, or "" if none is set.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)

	return id
}

// withNewCorrelationID returns a child context carrying a fresh
// correlation id, used at the start of every DatabaseAccess operation
// that doesn't already have one.
func withNewCorrelationID(ctx context.Context) context.Context {
	if CorrelationIDFromContext(ctx) != "" {
		return ctx
	}

	return ContextWithCorrelationID(ctx, uuid.NewString())
}
