// Package reqctx carries request-scoped values that lower layers need
// without depending on HTTP.
package reqctx

import (
	"context"

	"go-soft-delete/internal/model"
)

type contextKey string

const (
	actorKey     contextKey = "actor"
	requestIDKey contextKey = "request_id"
)

func WithActor(ctx context.Context, actor *model.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// Actor returns the request principal or nil when the call is anonymous.
func Actor(ctx context.Context) *model.Actor {
	actor, _ := ctx.Value(actorKey).(*model.Actor)
	return actor
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
