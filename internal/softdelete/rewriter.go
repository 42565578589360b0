package softdelete

import (
	"context"

	"go-soft-delete/internal/access"
	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
)

// rewriteReads hides soft-deleted records from find and count calls unless
// the caller filters on deletedAt explicitly.
func (g *Guard) rewriteReads(col *model.Collection, original, ops *access.Operations) {
	p := g.policy

	ops.FindOne = func(ctx context.Context, q filter.Query) (model.Record, error) {
		explicit := q.Filter.Mentions(model.FieldDeletedAt)
		q.Filter = p.Visible(q.Filter)

		rec, err := original.FindOne(ctx, q)
		if err != nil {
			return nil, err
		}
		if !explicit && col.Kind == model.KindSingleton && rec.IsDeleted() {
			return nil, model.ErrNotFound
		}
		return rec, nil
	}

	ops.FindMany = func(ctx context.Context, q filter.Query) ([]model.Record, error) {
		q.Filter = p.Visible(q.Filter)
		return original.FindMany(ctx, q)
	}

	ops.Count = func(ctx context.Context, f filter.Filter) (int64, error) {
		return original.Count(ctx, p.Visible(f))
	}
}

// hideFromWrites keeps plain updates away from soft-deleted records so an
// update cannot resurrect or expose one. Restore writes through the
// captured originals instead.
func (g *Guard) hideFromWrites(original, ops *access.Operations) {
	p := g.policy

	ops.Update = func(ctx context.Context, id string, data map[string]any, guard filter.Filter) (model.Record, error) {
		return original.Update(ctx, id, data, p.Visible(guard))
	}

	ops.UpdateMany = func(ctx context.Context, f filter.Filter, data map[string]any) (int64, error) {
		return original.UpdateMany(ctx, p.Visible(f), data)
	}
}
