package internal

import (
	"context"
	"time"
)

type actorKey struct{}

// ContextActorKey is the request-context key under which the auth
// middleware stores the authenticated actor.
var ContextActorKey = actorKey{}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
