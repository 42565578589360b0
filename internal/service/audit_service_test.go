package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-soft-delete/internal/model"
)

func TestAuditService_FileRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "audit", "events.jsonl")
	audit, err := NewAuditService(slog.Default(), nil, path)
	require.NoError(t, err)

	ctx := context.Background()
	audit.SoftDeleted(ctx, articles, "1", adminActor)
	audit.Restored(ctx, articles, "1", editorActor)
	audit.Purged(ctx, tags, "2", adminActor)
	audit.Swept(ctx, tags, 4, time.Now())

	items, meta, err := audit.Query(model.AuditQuery{})
	require.NoError(t, err)
	assert.Equal(t, 4, meta.Total)
	assert.Len(t, items, 4)

	items, _, err = audit.Query(model.AuditQuery{Action: "restore"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "8", items[0].Actor.ID)

	items, _, err = audit.Query(model.AuditQuery{Collection: tags})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, _, err = audit.Query(model.AuditQuery{ActorID: "7", Limit: 1, Page: 2})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, _, err = audit.Query(model.AuditQuery{From: "yesterday"})
	assert.Error(t, err)
}

func TestAuditService_WithoutFile(t *testing.T) {
	t.Parallel()

	audit, err := NewAuditService(nil, nil, "")
	require.NoError(t, err)

	audit.Purged(context.Background(), articles, "1", nil)

	items, meta, err := audit.Query(model.AuditQuery{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, meta.Total)
}
