package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
)

const articles = "api::article.article"

func seed(t *testing.T, s Store, recs ...model.Record) {
	t.Helper()
	for _, rec := range recs {
		_, err := s.Create(context.Background(), articles, rec)
		require.NoError(t, err)
	}
}

func TestMemoryStore_CreateAssignsID(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	rec, err := s.Create(context.Background(), articles, model.Record{"title": "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID())

	_, err = s.Create(context.Background(), articles, model.Record{"id": rec.ID()})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestMemoryStore_FindManyOrderingAndPaging(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	seed(t, s,
		model.Record{"id": "1", "rank": 3},
		model.Record{"id": "2", "rank": 1},
		model.Record{"id": "3"},
		model.Record{"id": "4", "rank": 2},
	)
	ctx := context.Background()

	all, err := s.FindMany(ctx, articles, filter.Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(all))

	sorted, err := s.FindMany(ctx, articles, filter.Query{OrderBy: "rank"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "4", "1", "3"}, ids(sorted))

	desc, err := s.FindMany(ctx, articles, filter.Query{OrderBy: "rank", Desc: true, Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "2"}, ids(desc))

	empty, err := s.FindMany(ctx, articles, filter.Query{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_UpdateRespectsGuard(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	seed(t, s, model.Record{"id": "1", "title": "a"})
	ctx := context.Background()

	_, err := s.Update(ctx, articles, "1", map[string]any{"title": "b"}, filter.New(filter.NotNull(model.FieldDeletedAt)))
	assert.ErrorIs(t, err, model.ErrNotFound)

	now := time.Now().UTC()
	updated, err := s.Update(ctx, articles, "1", map[string]any{model.FieldDeletedAt: now, "id": "ignored"}, filter.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "1", updated.ID())
	assert.True(t, updated.IsDeleted())

	_, err = s.Update(ctx, articles, "missing", map[string]any{"title": "x"}, filter.Filter{})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	seed(t, s, model.Record{"id": "1", "tags": []any{"a"}})
	ctx := context.Background()

	rec, err := s.FindOne(ctx, articles, filter.ByID("1"))
	require.NoError(t, err)
	rec["title"] = "mutated"
	rec["tags"].([]any)[0] = "z"

	again, err := s.FindOne(ctx, articles, filter.ByID("1"))
	require.NoError(t, err)
	assert.NotContains(t, again, "title")
	assert.Equal(t, "a", again["tags"].([]any)[0])
}

func TestMemoryStore_ManyOperations(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	seed(t, s,
		model.Record{"id": "1", "status": "draft"},
		model.Record{"id": "2", "status": "draft"},
		model.Record{"id": "3", "status": "published"},
	)
	ctx := context.Background()

	n, err := s.UpdateMany(ctx, articles, filter.New(filter.Eq("status", "draft")), map[string]any{"status": "archived"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	count, err := s.Count(ctx, articles, filter.New(filter.Eq("status", "archived")))
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	n, err = s.DeleteMany(ctx, articles, filter.New(filter.Eq("status", "archived")))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	deleted, err := s.Delete(ctx, articles, "3", filter.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "3", deleted.ID())

	count, err = s.Count(ctx, articles, filter.Filter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryStore_HonorsCancellation(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FindMany(ctx, articles, filter.Query{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.UpdateMany(ctx, articles, filter.Filter{}, map[string]any{"a": 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func ids(recs []model.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID()
	}
	return out
}
