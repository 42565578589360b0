// Package softdelete turns hard deletes into metadata updates and hides
// soft-deleted records from default reads. One Policy drives the
// decoration of every access layer so they cannot drift apart.
package softdelete

import (
	"context"
	"time"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
	"go-soft-delete/internal/registry"
	"go-soft-delete/internal/reqctx"
)

// ActorFunc resolves the principal of the current call.
type ActorFunc func(ctx context.Context) *model.Actor

// Observer is notified after a delete has been converted into an update.
type Observer interface {
	SoftDeleted(ctx context.Context, uid, id string, actor *model.Actor)
	SoftDeletedMany(ctx context.Context, uid string, count int64, actor *model.Actor)
}

type Policy struct {
	registry *registry.Registry
	actor    ActorFunc
	now      func() time.Time
	observer Observer
}

type Option func(*Policy)

func WithClock(now func() time.Time) Option {
	return func(p *Policy) { p.now = now }
}

func WithActorFunc(fn ActorFunc) Option {
	return func(p *Policy) { p.actor = fn }
}

func WithObserver(o Observer) Option {
	return func(p *Policy) { p.observer = o }
}

func NewPolicy(reg *registry.Registry, opts ...Option) *Policy {
	p := &Policy{
		registry: reg,
		actor:    reqctx.Actor,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enabled returns the collection when its primitives must be decorated.
func (p *Policy) Enabled(uid string) (*model.Collection, bool) {
	return p.registry.Enabled(uid)
}

// Visible applies default visibility: unless the caller already filters on
// deletedAt, only active records match.
func (p *Policy) Visible(f filter.Filter) filter.Filter {
	if f.Mentions(model.FieldDeletedAt) {
		return f
	}
	return f.With(filter.IsNull(model.FieldDeletedAt))
}

// Stamp builds the metadata written by a soft delete. Calls without an actor
// are attributed to the api kind with no actor id.
func (p *Policy) Stamp(ctx context.Context) (map[string]any, *model.Actor) {
	now := p.now().UTC()
	actor := p.actor(ctx)

	kind := actor.StampKind()
	meta := model.SoftDeleteMetadata{DeletedAt: &now, DeletedByActorKind: &kind}
	if actor != nil {
		id := actor.ID
		meta.DeletedByActorID = &id
	}
	return meta.Fields(), actor
}
