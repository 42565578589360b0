package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
	"go-soft-delete/internal/registry"
	"go-soft-delete/internal/softdelete"
)

// RetentionService purges records that have been soft-deleted for longer
// than the retention period.
type RetentionService struct {
	registry  *registry.Registry
	guard     *softdelete.Guard
	audit     *AuditService
	retention time.Duration
	now       func() time.Time
}

func NewRetentionService(reg *registry.Registry, guard *softdelete.Guard, audit *AuditService, retention time.Duration) *RetentionService {
	return &RetentionService{registry: reg, guard: guard, audit: audit, retention: retention, now: time.Now}
}

// Sweep removes, or with dryRun only counts, expired records in every
// enabled collection. A non-positive retention disables sweeping.
func (s *RetentionService) Sweep(ctx context.Context, dryRun bool) (model.SweepResult, error) {
	cutoff := s.now().UTC().Add(-s.retention)
	result := model.SweepResult{Cutoff: cutoff, DryRun: dryRun, ByCollection: map[string]int64{}}
	if s.retention <= 0 {
		return result, nil
	}

	expired := filter.New(filter.Lt(model.FieldDeletedAt, cutoff))
	for _, c := range s.registry.EnabledCollections() {
		ops, err := s.guard.Original(c.UID)
		if err != nil {
			return result, err
		}

		var n int64
		if dryRun {
			n, err = ops.Count(ctx, expired)
		} else {
			n, err = ops.DeleteMany(ctx, expired)
		}
		if err != nil {
			return result, fmt.Errorf("sweep %s: %w", c.UID, err)
		}

		result.ByCollection[c.UID] = n
		result.Purged += n
		if n > 0 && !dryRun {
			s.audit.Swept(ctx, c.UID, n, cutoff)
		}
	}
	return result, nil
}

// Run sweeps on every tick until ctx is cancelled.
func (s *RetentionService) Run(ctx context.Context, interval time.Duration) {
	if s.retention <= 0 || interval <= 0 {
		slog.Info("retention sweeper disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("retention sweeper started", "retention", s.retention.String(), "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := s.Sweep(ctx, false)
			if err != nil {
				slog.Error("retention sweep failed", "error", err)
				continue
			}
			slog.Debug("retention sweep finished", "purged", result.Purged)
		}
	}
}
