package service

import (
	"context"
	"errors"
	"fmt"

	"go-soft-delete/internal/access"
	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
	"go-soft-delete/internal/permission"
	"go-soft-delete/internal/softdelete"
)

// PurgeService physically removes soft-deleted records. It never touches
// active records.
type PurgeService struct {
	guard   *softdelete.Guard
	checker permission.Checker
	audit   *AuditService
	bulk    bulkRunner
}

func NewPurgeService(guard *softdelete.Guard, checker permission.Checker, audit *AuditService, bulkMaxItems int) *PurgeService {
	return &PurgeService{
		guard:   guard,
		checker: checker,
		audit:   audit,
		bulk:    newBulkRunner(checker, bulkMaxItems),
	}
}

func (s *PurgeService) Purge(ctx context.Context, uid, id string, actor *model.Actor, confirm bool) (model.PurgeResult, error) {
	if err := permission.Authorize(s.checker, actor, permission.ActionPurge, permission.CollectionAction(uid, "delete")); err != nil {
		return model.PurgeResult{}, err
	}
	if !confirm {
		return model.PurgeResult{}, model.ErrConfirmationRequired
	}
	if err := s.purge(ctx, uid, id, actor); err != nil {
		return model.PurgeResult{}, err
	}
	return model.PurgeResult{CollectionUID: uid, RecordID: id, Purged: true}, nil
}

// PurgeBulk rejects the whole batch without confirmation.
func (s *PurgeService) PurgeBulk(ctx context.Context, items []model.BulkItem, actor *model.Actor, confirm bool) (model.BulkOperationResult, error) {
	if err := s.bulk.validate(items); err != nil {
		return model.BulkOperationResult{}, err
	}
	if !confirm {
		return model.BulkOperationResult{}, model.ErrConfirmationRequired
	}
	return s.bulk.run(ctx, items, actor, permission.ActionPurge, "delete", func(ctx context.Context, item model.BulkItem) ([]string, error) {
		return nil, s.purge(ctx, item.CollectionUID, item.RecordID, actor)
	})
}

func (s *PurgeService) purge(ctx context.Context, uid, id string, actor *model.Actor) error {
	ops, err := s.guard.Original(uid)
	if err != nil {
		return err
	}

	rec, err := ops.FindOne(ctx, filter.ByID(id))
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%w: %s in %s", model.ErrNotFound, id, uid)
	}
	if err != nil {
		return fmt.Errorf("load record %s: %w", id, err)
	}
	if !rec.IsDeleted() {
		return fmt.Errorf("%w: %s in %s", model.ErrNotSoftDeleted, id, uid)
	}

	// the guard keeps a concurrently restored record alive
	_, err = ops.Delete(ctx, id, filter.New(filter.NotNull(model.FieldDeletedAt)))
	if errors.Is(err, model.ErrNotFound) {
		return s.lostRace(ctx, ops, uid, id)
	}
	if err != nil {
		return fmt.Errorf("purge record %s: %w", id, err)
	}

	s.audit.Purged(ctx, uid, id, actor)
	return nil
}

// lostRace explains a guarded delete that matched nothing: the record was
// either purged by someone else or restored in the meantime.
func (s *PurgeService) lostRace(ctx context.Context, ops *access.Operations, uid, id string) error {
	_, err := ops.FindOne(ctx, filter.ByID(id))
	switch {
	case errors.Is(err, model.ErrNotFound):
		return fmt.Errorf("%w: %s in %s", model.ErrNotFound, id, uid)
	case err != nil:
		return fmt.Errorf("load record %s: %w", id, err)
	default:
		return fmt.Errorf("%w: %s in %s", model.ErrNotSoftDeleted, id, uid)
	}
}
