package storage

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
)

var cacheRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "softdelete_store_cache_requests_total",
		Help: "Read-through cache lookups in front of the record store.",
	},
	[]string{"result"},
)

type cachedValue struct {
	record model.Record
	count  int64
}

// CachedStore is a read-through LRU cache for FindOne and Count. Any write
// to a collection bumps its generation, which orphans every cached entry
// of that collection.
//
// Invalidation is local to the process. Reads that filter on deletedAt,
// which includes every default-visibility read of a soft-delete collection,
// always go to the next store so a record deleted by another instance is
// never served from here.
type CachedStore struct {
	next  Store
	cache *expirable.LRU[string, cachedValue]

	mu          sync.Mutex
	generations map[string]uint64
}

func NewCachedStore(next Store, size int, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:        next,
		cache:       expirable.NewLRU[string, cachedValue](size, nil, ttl),
		generations: make(map[string]uint64),
	}
}

func (s *CachedStore) key(uid, op string, f filter.Filter, v any) (string, bool) {
	if f.Mentions(model.FieldDeletedAt) {
		cacheRequestsTotal.WithLabelValues("bypass").Inc()
		return "", false
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	s.mu.Lock()
	gen := s.generations[uid]
	s.mu.Unlock()
	return uid + "|" + strconv.FormatUint(gen, 10) + "|" + op + "|" + string(raw), true
}

func (s *CachedStore) invalidate(uid string) {
	s.mu.Lock()
	s.generations[uid]++
	s.mu.Unlock()
}

func (s *CachedStore) FindOne(ctx context.Context, uid string, q filter.Query) (model.Record, error) {
	key, ok := s.key(uid, "one", q.Filter, q)
	if ok {
		if v, hit := s.cache.Get(key); hit {
			cacheRequestsTotal.WithLabelValues("hit").Inc()
			return v.record.Clone(), nil
		}
		cacheRequestsTotal.WithLabelValues("miss").Inc()
	}

	rec, err := s.next.FindOne(ctx, uid, q)
	if err != nil {
		return nil, err
	}
	if ok {
		s.cache.Add(key, cachedValue{record: rec.Clone()})
	}
	return rec, nil
}

func (s *CachedStore) FindMany(ctx context.Context, uid string, q filter.Query) ([]model.Record, error) {
	return s.next.FindMany(ctx, uid, q)
}

func (s *CachedStore) Count(ctx context.Context, uid string, f filter.Filter) (int64, error) {
	key, ok := s.key(uid, "count", f, f)
	if ok {
		if v, hit := s.cache.Get(key); hit {
			cacheRequestsTotal.WithLabelValues("hit").Inc()
			return v.count, nil
		}
		cacheRequestsTotal.WithLabelValues("miss").Inc()
	}

	n, err := s.next.Count(ctx, uid, f)
	if err != nil {
		return 0, err
	}
	if ok {
		s.cache.Add(key, cachedValue{count: n})
	}
	return n, nil
}

func (s *CachedStore) Create(ctx context.Context, uid string, rec model.Record) (model.Record, error) {
	defer s.invalidate(uid)
	return s.next.Create(ctx, uid, rec)
}

func (s *CachedStore) Update(ctx context.Context, uid, id string, data map[string]any, guard filter.Filter) (model.Record, error) {
	defer s.invalidate(uid)
	return s.next.Update(ctx, uid, id, data, guard)
}

func (s *CachedStore) UpdateMany(ctx context.Context, uid string, f filter.Filter, data map[string]any) (int64, error) {
	defer s.invalidate(uid)
	return s.next.UpdateMany(ctx, uid, f, data)
}

func (s *CachedStore) Delete(ctx context.Context, uid, id string, guard filter.Filter) (model.Record, error) {
	defer s.invalidate(uid)
	return s.next.Delete(ctx, uid, id, guard)
}

func (s *CachedStore) DeleteMany(ctx context.Context, uid string, f filter.Filter) (int64, error) {
	defer s.invalidate(uid)
	return s.next.DeleteMany(ctx, uid, f)
}
