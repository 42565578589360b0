package softdelete

import (
	"context"
	"log/slog"

	"go-soft-delete/internal/access"
	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
)

// interceptDeletes replaces delete and deleteMany with a single update that
// stamps the soft-delete metadata. Records already soft-deleted are not
// matched, so a second delete reports not found instead of re-stamping.
func (g *Guard) interceptDeletes(col *model.Collection, original, ops *access.Operations) {
	p := g.policy

	ops.Delete = func(ctx context.Context, id string, guard filter.Filter) (model.Record, error) {
		stamp, actor := p.Stamp(ctx)
		rec, err := original.Update(ctx, id, stamp, p.Visible(guard))
		if err != nil {
			return nil, err
		}
		slog.Debug("delete converted to soft delete", "collection", col.UID, "id", id)
		if p.observer != nil {
			p.observer.SoftDeleted(ctx, col.UID, id, actor)
		}
		return rec, nil
	}

	ops.DeleteMany = func(ctx context.Context, f filter.Filter) (int64, error) {
		stamp, actor := p.Stamp(ctx)
		n, err := original.UpdateMany(ctx, p.Visible(f), stamp)
		if err != nil {
			return 0, err
		}
		slog.Debug("deleteMany converted to soft delete", "collection", col.UID, "count", n)
		if p.observer != nil && n > 0 {
			p.observer.SoftDeletedMany(ctx, col.UID, n, actor)
		}
		return n, nil
	}
}
