package access

import (
	"context"
	"fmt"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
	"go-soft-delete/internal/registry"
	"go-soft-delete/internal/storage"
)

const LayerQuery = "query"

// QueryLayer is the low-level access layer. Its default operations go
// straight to the store.
type QueryLayer struct {
	store    storage.Store
	registry *registry.Registry
	tables   *table
}

func NewQueryLayer(store storage.Store, reg *registry.Registry) *QueryLayer {
	l := &QueryLayer{store: store, registry: reg, tables: newTable()}
	for _, c := range reg.All() {
		l.tables.set(c.UID, l.storeOperations(c.UID))
	}
	return l
}

func (l *QueryLayer) Name() string { return LayerQuery }

func (l *QueryLayer) Operations(uid string) (*Operations, bool) {
	return l.tables.get(uid)
}

func (l *QueryLayer) Install(uid string, ops *Operations) {
	l.tables.set(uid, ops)
}

// Query returns the current operation table of a collection.
func (l *QueryLayer) Query(uid string) (*Operations, error) {
	ops, ok := l.tables.get(uid)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrCollectionNotFound, uid)
	}
	return ops, nil
}

func (l *QueryLayer) storeOperations(uid string) *Operations {
	s := l.store
	return &Operations{
		FindOne: func(ctx context.Context, q filter.Query) (model.Record, error) {
			return s.FindOne(ctx, uid, q)
		},
		FindMany: func(ctx context.Context, q filter.Query) ([]model.Record, error) {
			return s.FindMany(ctx, uid, q)
		},
		Count: func(ctx context.Context, f filter.Filter) (int64, error) {
			return s.Count(ctx, uid, f)
		},
		Create: func(ctx context.Context, rec model.Record) (model.Record, error) {
			return s.Create(ctx, uid, rec)
		},
		Update: func(ctx context.Context, id string, data map[string]any, guard filter.Filter) (model.Record, error) {
			return s.Update(ctx, uid, id, data, guard)
		},
		UpdateMany: func(ctx context.Context, f filter.Filter, data map[string]any) (int64, error) {
			return s.UpdateMany(ctx, uid, f, data)
		},
		Delete: func(ctx context.Context, id string, guard filter.Filter) (model.Record, error) {
			return s.Delete(ctx, uid, id, guard)
		},
		DeleteMany: func(ctx context.Context, f filter.Filter) (int64, error) {
			return s.DeleteMany(ctx, uid, f)
		},
	}
}
