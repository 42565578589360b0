package storage

import (
	"context"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
)

// Store is the raw record persistence contract. It knows nothing about
// soft delete: deletedAt is just another field to it.
//
// Update and Delete address a single record by id; guard adds conditions
// the record must also satisfy, otherwise model.ErrNotFound is returned
// and nothing is written.
type Store interface {
	FindOne(ctx context.Context, uid string, q filter.Query) (model.Record, error)
	FindMany(ctx context.Context, uid string, q filter.Query) ([]model.Record, error)
	Count(ctx context.Context, uid string, f filter.Filter) (int64, error)
	Create(ctx context.Context, uid string, rec model.Record) (model.Record, error)
	Update(ctx context.Context, uid, id string, data map[string]any, guard filter.Filter) (model.Record, error)
	UpdateMany(ctx context.Context, uid string, f filter.Filter, data map[string]any) (int64, error)
	Delete(ctx context.Context, uid, id string, guard filter.Filter) (model.Record, error)
	DeleteMany(ctx context.Context, uid string, f filter.Filter) (int64, error)
}
