package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"go-soft-delete/internal/event"
	"go-soft-delete/internal/model"
	"go-soft-delete/internal/reqctx"
	"go-soft-delete/pkg/apierror"
)

var lifecycleEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "softdelete_lifecycle_events_total",
		Help: "Soft delete, restore and purge operations by collection.",
	},
	[]string{"action", "collection"},
)

// AuditService records soft-delete lifecycle events: it logs them, counts
// them, publishes them on the event bus and, when a file path is set,
// appends them to a JSON lines audit file.
type AuditService struct {
	logger   *slog.Logger
	bus      event.Bus
	filePath string
	mu       sync.Mutex
}

func NewAuditService(logger *slog.Logger, bus event.Bus, filePath string) (*AuditService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AuditService{logger: logger, bus: bus, filePath: strings.TrimSpace(filePath)}
	if s.filePath == "" {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare audit directory: %w", err)
	}
	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		if err := os.WriteFile(s.filePath, []byte{}, 0o644); err != nil {
			return nil, fmt.Errorf("initialize audit file: %w", err)
		}
	}
	return s, nil
}

func (s *AuditService) SoftDeleted(ctx context.Context, uid, id string, actor *model.Actor) {
	s.logger.InfoContext(ctx, "record soft-deleted", "collection", uid, "id", id, "actor", actor)
	s.record(ctx, model.AuditSoftDelete, event.TypeRecordSoftDeleted, uid, id, 0, actor)
}

func (s *AuditService) SoftDeletedMany(ctx context.Context, uid string, count int64, actor *model.Actor) {
	s.logger.InfoContext(ctx, "records soft-deleted", "collection", uid, "count", count, "actor", actor)
	s.record(ctx, model.AuditSoftDelete, event.TypeRecordsSoftDeleted, uid, "", count, actor)
}

func (s *AuditService) Restored(ctx context.Context, uid, id string, actor *model.Actor) {
	s.logger.InfoContext(ctx, "record restored", "collection", uid, "id", id, "actor", actor)
	s.record(ctx, model.AuditRestore, event.TypeRecordRestored, uid, id, 0, actor)
}

// Purged is logged at warn level since the record is gone for good.
func (s *AuditService) Purged(ctx context.Context, uid, id string, actor *model.Actor) {
	s.logger.WarnContext(ctx, "record permanently deleted", "collection", uid, "id", id, "actor", actor)
	s.record(ctx, model.AuditPurge, event.TypeRecordPurged, uid, id, 0, actor)
}

func (s *AuditService) Swept(ctx context.Context, uid string, count int64, cutoff time.Time) {
	s.logger.WarnContext(ctx, "retention sweep purged records", "collection", uid, "count", count, "cutoff", cutoff.Format(time.RFC3339))
	s.record(ctx, model.AuditSweep, event.TypeRetentionSwept, uid, "", count, model.SystemActor("retention"))
}

func (s *AuditService) record(ctx context.Context, action string, typ event.Type, uid, id string, count int64, actor *model.Actor) {
	n := float64(1)
	if count > 0 {
		n = float64(count)
	}
	lifecycleEventsTotal.WithLabelValues(action, uid).Add(n)

	if s.bus != nil {
		e := event.Event{Type: typ, Collection: uid, Payload: event.RecordPayload{Collection: uid, ID: id, Count: count}}
		if actor != nil {
			e.ActorID = actor.ID
		}
		s.bus.Publish(e)
	}

	s.append(model.AuditEntry{
		Action:     action,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Actor:      actor,
		Collection: uid,
		RecordID:   id,
		Count:      count,
		RequestID:  reqctx.RequestID(ctx),
	})
}

func (s *AuditService) append(entry model.AuditEntry) {
	if s.filePath == "" {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.logger.Error("open audit file", "error", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		s.logger.Error("write audit entry", "error", err)
	}
}

// Query pages through the audit file, newest first.
func (s *AuditService) Query(query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	from, err := parseOptionalAuditTime(query.From)
	if err != nil {
		return nil, model.Meta{}, apierror.BadRequest("invalid 'from' datetime format", query.From)
	}
	to, err := parseOptionalAuditTime(query.To)
	if err != nil {
		return nil, model.Meta{}, apierror.BadRequest("invalid 'to' datetime format", query.To)
	}

	items := make([]model.AuditEntry, 0, 64)
	if s.filePath == "" {
		return items, model.Meta{Page: query.Page, Limit: query.Limit}, nil
	}

	action := strings.ToLower(strings.TrimSpace(query.Action))
	actorID := strings.TrimSpace(query.ActorID)
	collection := strings.TrimSpace(query.Collection)

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.filePath)
	if err != nil {
		return nil, model.Meta{}, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry model.AuditEntry
		if json.Unmarshal([]byte(line), &entry) != nil {
			continue
		}
		if action != "" && strings.ToLower(entry.Action) != action {
			continue
		}
		if actorID != "" && (entry.Actor == nil || entry.Actor.ID != actorID) {
			continue
		}
		if collection != "" && entry.Collection != collection {
			continue
		}

		at, timeErr := parseAuditTime(entry.OccurredAt)
		if timeErr != nil {
			continue
		}
		if !from.IsZero() && at.Before(from) {
			continue
		}
		if !to.IsZero() && at.After(to) {
			continue
		}

		items = append(items, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, model.Meta{}, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		left, _ := parseAuditTime(items[i].OccurredAt)
		right, _ := parseAuditTime(items[j].OccurredAt)
		return left.After(right)
	})

	page, meta := paginate(items, query.Page, query.Limit)
	return page, meta, nil
}

func paginate[T any](items []T, page, limit int) ([]T, model.Meta) {
	total := len(items)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return items[start:end], model.Meta{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

func parseOptionalAuditTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}
	return parseAuditTime(trimmed)
}

func parseAuditTime(raw string) (time.Time, error) {
	value, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return value.UTC(), nil
}
