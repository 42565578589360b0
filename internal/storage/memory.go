package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
)

type memEntry struct {
	seq uint64
	rec model.Record
}

// MemoryStore keeps records in process memory. It backs development runs
// without DATABASE_URL and most unit tests.
type MemoryStore struct {
	mu          sync.RWMutex
	seq         uint64
	collections map[string]map[string]*memEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]*memEntry)}
}

func (s *MemoryStore) FindOne(ctx context.Context, uid string, q filter.Query) (model.Record, error) {
	q.Limit = 1
	recs, err := s.FindMany(ctx, uid, q)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, model.ErrNotFound
	}
	return recs[0], nil
}

func (s *MemoryStore) FindMany(ctx context.Context, uid string, q filter.Query) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := s.matchLocked(uid, q.Filter)
	s.mu.RUnlock()

	sortEntries(matched, q.OrderBy, q.Desc)

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []model.Record{}, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}

	out := make([]model.Record, len(matched))
	for i, e := range matched {
		out[i] = e.rec
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, uid string, f filter.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.matchLocked(uid, f))), nil
}

func (s *MemoryStore) Create(ctx context.Context, uid string, rec model.Record) (model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := rec.Clone()
	if stored == nil {
		stored = model.Record{}
	}
	id := stored.ID()
	if id == "" {
		id = uuid.NewString()
	}
	stored[model.FieldID] = id

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.collections[uid]
	if records == nil {
		records = make(map[string]*memEntry)
		s.collections[uid] = records
	}
	if _, exists := records[id]; exists {
		return nil, fmt.Errorf("%w: record %s already exists in %s", model.ErrInvalidInput, id, uid)
	}
	s.seq++
	records[id] = &memEntry{seq: s.seq, rec: stored}
	return stored.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, uid, id string, data map[string]any, guard filter.Filter) (model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.collections[uid][id]
	if !ok || !guard.Match(entry.rec) {
		return nil, model.ErrNotFound
	}
	applyUpdate(entry.rec, data)
	return entry.rec.Clone(), nil
}

func (s *MemoryStore) UpdateMany(ctx context.Context, uid string, f filter.Filter, data map[string]any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, entry := range s.collections[uid] {
		if f.Match(entry.rec) {
			applyUpdate(entry.rec, data)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Delete(ctx context.Context, uid, id string, guard filter.Filter) (model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.collections[uid][id]
	if !ok || !guard.Match(entry.rec) {
		return nil, model.ErrNotFound
	}
	delete(s.collections[uid], id)
	return entry.rec, nil
}

func (s *MemoryStore) DeleteMany(ctx context.Context, uid string, f filter.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, entry := range s.collections[uid] {
		if f.Match(entry.rec) {
			delete(s.collections[uid], id)
			n++
		}
	}
	return n, nil
}

// matchLocked returns snapshots of matching entries. Caller holds s.mu.
func (s *MemoryStore) matchLocked(uid string, f filter.Filter) []*memEntry {
	matched := make([]*memEntry, 0)
	for _, entry := range s.collections[uid] {
		if f.Match(entry.rec) {
			matched = append(matched, &memEntry{seq: entry.seq, rec: entry.rec.Clone()})
		}
	}
	return matched
}

func applyUpdate(rec model.Record, data map[string]any) {
	for k, v := range model.Record(data).Clone() {
		if k == model.FieldID {
			continue
		}
		if kind, ok := v.(model.ActorKind); ok {
			v = string(kind)
		}
		rec[k] = v
	}
}

// sortEntries orders by field with nil values last; insertion order breaks
// ties and is the default.
func sortEntries(entries []*memEntry, field string, desc bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		if field == "" {
			return entries[i].seq < entries[j].seq
		}
		a, aok := entries[i].rec[field]
		b, bok := entries[j].rec[field]
		aok = aok && a != nil
		bok = bok && b != nil
		switch {
		case !aok && !bok:
			return entries[i].seq < entries[j].seq
		case !aok:
			return false
		case !bok:
			return true
		}
		cmp, ok := filter.Compare(a, b)
		if !ok || cmp == 0 {
			return entries[i].seq < entries[j].seq
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}
