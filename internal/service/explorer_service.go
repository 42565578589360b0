package service

import (
	"context"
	"fmt"
	"strings"

	"go-soft-delete/internal/access"
	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
	"go-soft-delete/internal/permission"
	"go-soft-delete/internal/registry"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// titleFields are tried in order when picking a display title.
var titleFields = []string{"title", "name", "label", "displayName", "heading", "subject"}

type DeletedQuery struct {
	Collection string
	Search     string
	Page       int
	PageSize   int
}

// ExplorerService lists soft-deleted records grouped by collection. It reads
// through the record service with an explicit deletedAt filter.
type ExplorerService struct {
	registry *registry.Registry
	records  *access.RecordService
	checker  permission.Checker
}

func NewExplorerService(reg *registry.Registry, records *access.RecordService, checker permission.Checker) *ExplorerService {
	return &ExplorerService{registry: reg, records: records, checker: checker}
}

func (s *ExplorerService) Collections(actor *model.Actor) ([]model.CollectionSummary, error) {
	if err := permission.Authorize(s.checker, actor, permission.ActionRead); err != nil {
		return nil, err
	}

	enabled := s.registry.EnabledCollections()
	out := make([]model.CollectionSummary, 0, len(enabled))
	for _, c := range enabled {
		out = append(out, model.CollectionSummary{UID: c.UID, Kind: c.Kind, DisplayName: c.DisplayName})
	}
	return out, nil
}

func (s *ExplorerService) ListDeleted(ctx context.Context, q DeletedQuery, actor *model.Actor) ([]model.DeletedGroup, model.Meta, error) {
	if err := permission.Authorize(s.checker, actor, permission.ActionRead); err != nil {
		return nil, model.Meta{}, err
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	var cols []*model.Collection
	if q.Collection != "" {
		if c, ok := s.registry.Enabled(q.Collection); ok {
			cols = append(cols, c)
		}
	} else {
		cols = s.registry.EnabledCollections()
	}

	groups := make([]model.DeletedGroup, 0, len(cols))
	meta := model.Meta{Page: q.Page, Limit: q.PageSize}
	for _, c := range cols {
		group, err := s.listCollection(ctx, c, q)
		if err != nil {
			return nil, model.Meta{}, err
		}
		meta.Total += int(group.Total)
		if pages := int((group.Total + int64(q.PageSize) - 1) / int64(q.PageSize)); pages > meta.TotalPages {
			meta.TotalPages = pages
		}
		groups = append(groups, group)
	}
	return groups, meta, nil
}

func (s *ExplorerService) listCollection(ctx context.Context, c *model.Collection, q DeletedQuery) (model.DeletedGroup, error) {
	f := filter.New(filter.NotNull(model.FieldDeletedAt))
	if term := strings.TrimSpace(q.Search); term != "" {
		f = f.WithAny(searchConditions(c, term)...)
	}

	total, err := s.records.Count(ctx, c.UID, f)
	if err != nil {
		return model.DeletedGroup{}, fmt.Errorf("count deleted %s: %w", c.UID, err)
	}

	recs, err := s.records.FindMany(ctx, c.UID, filter.Query{
		Filter:  f,
		Limit:   q.PageSize,
		Offset:  (q.Page - 1) * q.PageSize,
		OrderBy: model.FieldDeletedAt,
		Desc:    true,
	})
	if err != nil {
		return model.DeletedGroup{}, fmt.Errorf("list deleted %s: %w", c.UID, err)
	}

	entries := make([]model.DeletedEntry, 0, len(recs))
	for _, rec := range recs {
		meta := rec.Metadata()
		entries = append(entries, model.DeletedEntry{
			ID:                 rec.ID(),
			Title:              Title(rec),
			DeletedAt:          meta.DeletedAt,
			DeletedByActorID:   meta.DeletedByActorID,
			DeletedByActorKind: meta.DeletedByActorKind,
			Record:             rec,
		})
	}

	return model.DeletedGroup{
		CollectionUID: c.UID,
		DisplayName:   c.DisplayName,
		Kind:          c.Kind,
		Total:         total,
		Entries:       entries,
	}, nil
}

func searchConditions(c *model.Collection, term string) []filter.Condition {
	conds := []filter.Condition{filter.Containsi(model.FieldID, term)}
	for _, field := range titleFields {
		if c.HasAttribute(field) {
			conds = append(conds, filter.Containsi(field, term))
		}
	}
	return conds
}

// Title picks a human readable label for a record, falling back to its id.
func Title(rec model.Record) string {
	for _, field := range titleFields {
		if v, ok := rec[field].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return rec.ID()
}
