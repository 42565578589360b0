package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
)

func TestRetention_SweepPurgesExpiredOnly(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	e.retention.now = func() time.Time { return now }

	ctx := context.Background()
	seed := []model.Record{
		{"id": "old", model.FieldDeletedAt: now.Add(-45 * 24 * time.Hour), model.FieldDeletedByActorKind: "api"},
		{"id": "recent", model.FieldDeletedAt: now.Add(-2 * 24 * time.Hour), model.FieldDeletedByActorKind: "api"},
		{"id": "active"},
	}
	for _, rec := range seed {
		_, err := e.store.Create(ctx, articles, rec)
		require.NoError(t, err)
	}

	dry, err := e.retention.Sweep(ctx, true)
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	assert.EqualValues(t, 1, dry.Purged)
	assert.Equal(t, now.Add(-30*24*time.Hour), dry.Cutoff)

	count, err := e.store.Count(ctx, articles, filter.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	result, err := e.retention.Sweep(ctx, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Purged)
	assert.EqualValues(t, 1, result.ByCollection[articles])

	_, err = e.store.FindOne(ctx, articles, filter.ByID("old"))
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = e.store.FindOne(ctx, articles, filter.ByID("recent"))
	assert.NoError(t, err)
	_, err = e.store.FindOne(ctx, articles, filter.ByID("active"))
	assert.NoError(t, err)
}

func TestRetention_DisabledWithoutPeriod(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	svc := NewRetentionService(e.reg, e.guard, e.audit, 0)

	result, err := svc.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, result.Purged)

	done := make(chan struct{})
	go func() {
		svc.Run(context.Background(), time.Millisecond)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled sweeper should return immediately")
	}
}
