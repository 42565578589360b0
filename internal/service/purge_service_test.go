package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
	"go-soft-delete/internal/storage"
)

func TestPurge_RemovesSoftDeletedRecord(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.create(t, articles, map[string]any{"id": "42"})
	e.softDelete(t, articles, "42")

	result, err := e.purge.Purge(context.Background(), articles, "42", adminActor, true)
	require.NoError(t, err)
	assert.True(t, result.Purged)

	ops, err := e.guard.Original(articles)
	require.NoError(t, err)
	_, err = ops.FindOne(context.Background(), filter.ByID("42"))
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPurge_RefusesActiveRecord(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.create(t, articles, map[string]any{"id": "1"})

	_, err := e.purge.Purge(context.Background(), articles, "1", adminActor, true)
	assert.ErrorIs(t, err, model.ErrNotSoftDeleted)

	rec, err := e.records.FindOne(context.Background(), articles, "1", filter.Query{})
	require.NoError(t, err)
	assert.Equal(t, "1", rec.ID())
}

func TestPurge_Errors(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.create(t, articles, map[string]any{"id": "1"})
	e.softDelete(t, articles, "1")

	_, err := e.purge.Purge(context.Background(), articles, "1", adminActor, false)
	assert.ErrorIs(t, err, model.ErrConfirmationRequired)

	_, err = e.purge.Purge(context.Background(), articles, "1", editorActor, true)
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = e.purge.Purge(context.Background(), articles, "1", nil, true)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = e.purge.Purge(context.Background(), articles, "2", adminActor, true)
	assert.ErrorIs(t, err, model.ErrNotFound)

	// still restorable after the failed attempts
	_, err = e.restore.Restore(context.Background(), articles, "1", adminActor)
	assert.NoError(t, err)
}

func TestPurgeBulk(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.create(t, articles, map[string]any{"id": "1"})
	e.create(t, articles, map[string]any{"id": "2"})
	e.create(t, tags, map[string]any{"id": "1"})
	e.softDelete(t, articles, "1")
	e.softDelete(t, tags, "1")

	items := []model.BulkItem{
		{CollectionUID: articles, RecordID: "1"},
		{CollectionUID: articles, RecordID: "2"},
		{CollectionUID: tags, RecordID: "1"},
	}

	_, err := e.purge.PurgeBulk(context.Background(), items, adminActor, false)
	require.ErrorIs(t, err, model.ErrConfirmationRequired)

	count, err := e.store.Count(context.Background(), articles, filter.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "nothing purged without confirmation")

	result, err := e.purge.PurgeBulk(context.Background(), items, adminActor, true)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.ErrorIs(t, result.Items[1].Err, model.ErrNotSoftDeleted)

	count, err = e.store.Count(context.Background(), articles, filter.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

// interleavedStore runs a competing write right before the first guarded
// delete, as if another request got there first.
type interleavedStore struct {
	*storage.MemoryStore
	before func(ctx context.Context, uid, id string)
	once   sync.Once
}

func (s *interleavedStore) Delete(ctx context.Context, uid, id string, guard filter.Filter) (model.Record, error) {
	s.once.Do(func() { s.before(ctx, uid, id) })
	return s.MemoryStore.Delete(ctx, uid, id, guard)
}

func TestPurge_LosesRaceToConcurrentWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		compete func(m *storage.MemoryStore) func(ctx context.Context, uid, id string)
		want    error
	}{
		{
			name: "purged elsewhere",
			compete: func(m *storage.MemoryStore) func(ctx context.Context, uid, id string) {
				return func(ctx context.Context, uid, id string) {
					_, _ = m.Delete(ctx, uid, id, filter.Filter{})
				}
			},
			want: model.ErrNotFound,
		},
		{
			name: "restored elsewhere",
			compete: func(m *storage.MemoryStore) func(ctx context.Context, uid, id string) {
				return func(ctx context.Context, uid, id string) {
					_, _ = m.Update(ctx, uid, id, model.ClearedMetadata(), filter.Filter{})
				}
			},
			want: model.ErrNotSoftDeleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newEnvWithStore(t, func(m *storage.MemoryStore) storage.Store {
				return &interleavedStore{MemoryStore: m, before: tt.compete(m)}
			})
			e.create(t, articles, map[string]any{"id": "42"})
			e.softDelete(t, articles, "42")

			_, err := e.purge.Purge(context.Background(), articles, "42", adminActor, true)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPurge_CancelledContext(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.create(t, articles, map[string]any{"id": "42"})
	e.softDelete(t, articles, "42")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.purge.Purge(ctx, articles, "42", adminActor, true)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, result.Purged)

	count, err := e.store.Count(context.Background(), articles, filter.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "record still stored")
}

func TestPurgeBulk_CancelledContext(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	for _, id := range []string{"1", "2"} {
		e.create(t, articles, map[string]any{"id": id})
		e.softDelete(t, articles, id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.purge.PurgeBulk(ctx, []model.BulkItem{
		{CollectionUID: articles, RecordID: "1"},
		{CollectionUID: articles, RecordID: "2"},
	}, adminActor, true)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.Succeeded)
	assert.Equal(t, 2, result.Failed)

	count, err := e.store.Count(context.Background(), articles, filter.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "nothing purged")
}
