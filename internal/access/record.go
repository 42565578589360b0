package access

import (
	"context"
	"fmt"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
	"go-soft-delete/internal/registry"
)

const LayerRecord = "record"

// RecordService is the high-level access layer used by API handlers. Its
// default operations delegate to whatever the query layer currently has
// installed, so decoration of the query layer is inherited.
type RecordService struct {
	query    *QueryLayer
	registry *registry.Registry
	tables   *table
}

func NewRecordService(query *QueryLayer, reg *registry.Registry) *RecordService {
	s := &RecordService{query: query, registry: reg, tables: newTable()}
	for _, c := range reg.All() {
		s.tables.set(c.UID, s.delegatingOperations(c.UID))
	}
	return s
}

func (s *RecordService) Name() string { return LayerRecord }

func (s *RecordService) Operations(uid string) (*Operations, bool) {
	return s.tables.get(uid)
}

func (s *RecordService) Install(uid string, ops *Operations) {
	s.tables.set(uid, ops)
}

func (s *RecordService) ops(uid string) (*Operations, error) {
	ops, ok := s.tables.get(uid)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrCollectionNotFound, uid)
	}
	return ops, nil
}

// FindOne loads a record by id. Extra conditions in q are combined with the
// id match.
func (s *RecordService) FindOne(ctx context.Context, uid, id string, q filter.Query) (model.Record, error) {
	ops, err := s.ops(uid)
	if err != nil {
		return nil, err
	}
	q.Filter = q.Filter.With(filter.Eq(model.FieldID, id))
	return ops.FindOne(ctx, q)
}

// FindFirst returns the first record matching q. Singletons are read this
// way.
func (s *RecordService) FindFirst(ctx context.Context, uid string, q filter.Query) (model.Record, error) {
	ops, err := s.ops(uid)
	if err != nil {
		return nil, err
	}
	return ops.FindOne(ctx, q)
}

func (s *RecordService) FindMany(ctx context.Context, uid string, q filter.Query) ([]model.Record, error) {
	ops, err := s.ops(uid)
	if err != nil {
		return nil, err
	}
	return ops.FindMany(ctx, q)
}

func (s *RecordService) Count(ctx context.Context, uid string, f filter.Filter) (int64, error) {
	ops, err := s.ops(uid)
	if err != nil {
		return 0, err
	}
	return ops.Count(ctx, f)
}

// Create stores a new record. Soft-delete metadata is not writable through
// this surface and is stripped from the input.
func (s *RecordService) Create(ctx context.Context, uid string, data map[string]any) (model.Record, error) {
	ops, err := s.ops(uid)
	if err != nil {
		return nil, err
	}
	return ops.Create(ctx, writable(data, true))
}

// Update merges data into an existing record. The id and soft-delete
// metadata cannot be changed through this surface.
func (s *RecordService) Update(ctx context.Context, uid, id string, data map[string]any) (model.Record, error) {
	ops, err := s.ops(uid)
	if err != nil {
		return nil, err
	}
	return ops.Update(ctx, id, writable(data, false), filter.Filter{})
}

func (s *RecordService) Delete(ctx context.Context, uid, id string) (model.Record, error) {
	ops, err := s.ops(uid)
	if err != nil {
		return nil, err
	}
	return ops.Delete(ctx, id, filter.Filter{})
}

func (s *RecordService) DeleteMany(ctx context.Context, uid string, f filter.Filter) (int64, error) {
	ops, err := s.ops(uid)
	if err != nil {
		return 0, err
	}
	return ops.DeleteMany(ctx, f)
}

func (s *RecordService) delegatingOperations(uid string) *Operations {
	q := s.query
	return &Operations{
		FindOne: func(ctx context.Context, qry filter.Query) (model.Record, error) {
			ops, err := q.Query(uid)
			if err != nil {
				return nil, err
			}
			return ops.FindOne(ctx, qry)
		},
		FindMany: func(ctx context.Context, qry filter.Query) ([]model.Record, error) {
			ops, err := q.Query(uid)
			if err != nil {
				return nil, err
			}
			return ops.FindMany(ctx, qry)
		},
		Count: func(ctx context.Context, f filter.Filter) (int64, error) {
			ops, err := q.Query(uid)
			if err != nil {
				return 0, err
			}
			return ops.Count(ctx, f)
		},
		Create: func(ctx context.Context, rec model.Record) (model.Record, error) {
			ops, err := q.Query(uid)
			if err != nil {
				return nil, err
			}
			return ops.Create(ctx, rec)
		},
		Update: func(ctx context.Context, id string, data map[string]any, guard filter.Filter) (model.Record, error) {
			ops, err := q.Query(uid)
			if err != nil {
				return nil, err
			}
			return ops.Update(ctx, id, data, guard)
		},
		UpdateMany: func(ctx context.Context, f filter.Filter, data map[string]any) (int64, error) {
			ops, err := q.Query(uid)
			if err != nil {
				return 0, err
			}
			return ops.UpdateMany(ctx, f, data)
		},
		Delete: func(ctx context.Context, id string, guard filter.Filter) (model.Record, error) {
			ops, err := q.Query(uid)
			if err != nil {
				return nil, err
			}
			return ops.Delete(ctx, id, guard)
		},
		DeleteMany: func(ctx context.Context, f filter.Filter) (int64, error) {
			ops, err := q.Query(uid)
			if err != nil {
				return 0, err
			}
			return ops.DeleteMany(ctx, f)
		},
	}
}

func writable(data map[string]any, keepID bool) model.Record {
	out := make(model.Record, len(data))
	for k, v := range data {
		if model.IsMetadataField(k) || (k == model.FieldID && !keepID) {
			continue
		}
		out[k] = v
	}
	return out
}
