package service

import (
	"context"
	"errors"
	"fmt"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
	"go-soft-delete/internal/permission"
	"go-soft-delete/internal/softdelete"
)

// WarningNotDeleted is returned when restoring a record that is active.
const WarningNotDeleted = "record is not deleted"

// RestoreService clears soft-delete metadata through the undecorated
// primitives captured by the guard.
type RestoreService struct {
	guard   *softdelete.Guard
	checker permission.Checker
	audit   *AuditService
	bulk    bulkRunner
}

func NewRestoreService(guard *softdelete.Guard, checker permission.Checker, audit *AuditService, bulkMaxItems int) *RestoreService {
	return &RestoreService{
		guard:   guard,
		checker: checker,
		audit:   audit,
		bulk:    newBulkRunner(checker, bulkMaxItems),
	}
}

func (s *RestoreService) Restore(ctx context.Context, uid, id string, actor *model.Actor) (model.RestoreResult, error) {
	if err := permission.Authorize(s.checker, actor, permission.ActionRestore, permission.CollectionAction(uid, "update")); err != nil {
		return model.RestoreResult{}, err
	}
	return s.restore(ctx, uid, id, actor)
}

func (s *RestoreService) RestoreBulk(ctx context.Context, items []model.BulkItem, actor *model.Actor) (model.BulkOperationResult, error) {
	return s.bulk.run(ctx, items, actor, permission.ActionRestore, "update", func(ctx context.Context, item model.BulkItem) ([]string, error) {
		res, err := s.restore(ctx, item.CollectionUID, item.RecordID, actor)
		return res.Warnings, err
	})
}

func (s *RestoreService) restore(ctx context.Context, uid, id string, actor *model.Actor) (model.RestoreResult, error) {
	ops, err := s.guard.Original(uid)
	if err != nil {
		return model.RestoreResult{}, err
	}

	rec, err := ops.FindOne(ctx, filter.ByID(id))
	if errors.Is(err, model.ErrNotFound) {
		return model.RestoreResult{}, fmt.Errorf("%w: %s in %s", model.ErrNotFound, id, uid)
	}
	if err != nil {
		return model.RestoreResult{}, fmt.Errorf("load record %s: %w", id, err)
	}

	if !rec.IsDeleted() {
		return model.RestoreResult{Record: rec, Warnings: []string{WarningNotDeleted}}, nil
	}

	restored, err := ops.Update(ctx, id, model.ClearedMetadata(), filter.Filter{})
	if errors.Is(err, model.ErrNotFound) {
		return model.RestoreResult{}, fmt.Errorf("%w: %s in %s", model.ErrNotFound, id, uid)
	}
	if err != nil {
		return model.RestoreResult{}, fmt.Errorf("restore record %s: %w", id, err)
	}

	s.audit.Restored(ctx, uid, id, actor)
	return model.RestoreResult{Record: restored, Warnings: []string{}}, nil
}
