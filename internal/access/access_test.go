package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
	"go-soft-delete/internal/registry"
	"go-soft-delete/internal/storage"
)

const articles = "api::article.article"

func newLayers(t *testing.T) (*QueryLayer, *RecordService) {
	t.Helper()

	reg := registry.New()
	require.NoError(t, reg.Register(model.Collection{UID: articles, DisplayName: "Article"}))
	query := NewQueryLayer(storage.NewMemoryStore(), reg)
	return query, NewRecordService(query, reg)
}

func TestRecordService_StripsMetadata(t *testing.T) {
	t.Parallel()

	_, records := newLayers(t)
	ctx := context.Background()

	created, err := records.Create(ctx, articles, map[string]any{
		"id":                          "a1",
		"title":                       "Hello",
		model.FieldDeletedAt:          "2026-01-01T00:00:00Z",
		model.FieldDeletedByActorKind: "api",
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", created.ID())
	assert.False(t, created.IsDeleted())
	assert.NotContains(t, created, model.FieldDeletedByActorKind)

	updated, err := records.Update(ctx, articles, "a1", map[string]any{
		"id":                 "other",
		"title":              "Changed",
		model.FieldDeletedAt: "2026-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", updated.ID())
	assert.Equal(t, "Changed", updated["title"])
	assert.False(t, updated.IsDeleted())
}

func TestRecordService_DelegatesToInstalledQueryOperations(t *testing.T) {
	t.Parallel()

	query, records := newLayers(t)
	ctx := context.Background()

	_, err := records.Create(ctx, articles, map[string]any{"id": "a1"})
	require.NoError(t, err)

	current, ok := query.Operations(articles)
	require.True(t, ok)
	replaced := current.Clone()
	calls := 0
	replaced.Count = func(ctx context.Context, f filter.Filter) (int64, error) {
		calls++
		return current.Count(ctx, f)
	}
	query.Install(articles, replaced)

	n, err := records.Count(ctx, articles, filter.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, calls)
}

func TestRecordService_UndecoratedDeleteIsPhysical(t *testing.T) {
	t.Parallel()

	_, records := newLayers(t)
	ctx := context.Background()

	_, err := records.Create(ctx, articles, map[string]any{"id": "a1"})
	require.NoError(t, err)

	_, err = records.Delete(ctx, articles, "a1")
	require.NoError(t, err)

	_, err = records.FindOne(ctx, articles, "a1", filter.Query{})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLayers_UnknownCollection(t *testing.T) {
	t.Parallel()

	query, records := newLayers(t)
	ctx := context.Background()

	_, err := query.Query("api::missing.missing")
	assert.ErrorIs(t, err, model.ErrCollectionNotFound)

	_, err = records.FindMany(ctx, "api::missing.missing", filter.Query{})
	assert.ErrorIs(t, err, model.ErrCollectionNotFound)

	_, err = records.DeleteMany(ctx, "api::missing.missing", filter.Filter{})
	assert.ErrorIs(t, err, model.ErrCollectionNotFound)
}
