package events

import (
	"context"

	"github.com/google/uuid"
)

type correlationKey struct{}

// WithCorrelationID tags ctx so events published while serving it carry id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func correlationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

func newEventID() string { return uuid.NewString() }
