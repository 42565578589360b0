// Package access exposes the two data-access layers callers use: the
// low-level query layer and the record service built on top of it. Each
// layer dispatches through a per-collection table of operations that can
// be replaced at startup.
package access

import (
	"context"
	"sync"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
)

// Operations is the swappable primitive table of one collection at one
// layer.
type Operations struct {
	FindOne    func(ctx context.Context, q filter.Query) (model.Record, error)
	FindMany   func(ctx context.Context, q filter.Query) ([]model.Record, error)
	Count      func(ctx context.Context, f filter.Filter) (int64, error)
	Create     func(ctx context.Context, rec model.Record) (model.Record, error)
	Update     func(ctx context.Context, id string, data map[string]any, guard filter.Filter) (model.Record, error)
	UpdateMany func(ctx context.Context, f filter.Filter, data map[string]any) (int64, error)
	Delete     func(ctx context.Context, id string, guard filter.Filter) (model.Record, error)
	DeleteMany func(ctx context.Context, f filter.Filter) (int64, error)
}

// Clone returns a shallow copy; the function values are shared.
func (o *Operations) Clone() *Operations {
	c := *o
	return &c
}

// Layer is implemented by every access layer whose primitives can be
// decorated.
type Layer interface {
	Name() string
	Operations(uid string) (*Operations, bool)
	Install(uid string, ops *Operations)
}

type table struct {
	mu  sync.RWMutex
	ops map[string]*Operations
}

func newTable() *table {
	return &table{ops: make(map[string]*Operations)}
}

func (t *table) get(uid string) (*Operations, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ops, ok := t.ops[uid]
	return ops, ok
}

func (t *table) set(uid string, ops *Operations) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops[uid] = ops
}
