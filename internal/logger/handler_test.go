package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-soft-delete/internal/reqctx"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_JSONCarriesRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "info", "json")

	ctx := reqctx.WithRequestID(context.Background(), "req-1")
	log.InfoContext(ctx, "record restored", "collection", "api::article.article")
	log.Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "record restored", line["msg"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "api::article.article", line["collection"])
}

func TestPrettyHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("skipped")
	assert.Zero(t, buf.Len())

	log.With("component", "retention").WithGroup("sweep").Warn("record permanently deleted", "id", "42")
	out := buf.String()
	assert.Contains(t, out, "record permanently deleted")
	assert.Contains(t, out, "component")
	assert.Contains(t, out, "sweep.id")
}

func TestPrettyHandler_FlattensGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil))

	log.Info("record restored", "actor", slog.GroupValue(slog.String("id", "7"), slog.String("kind", "admin")))
	out := buf.String()
	assert.Contains(t, out, "actor.id")
	assert.Contains(t, out, "actor.kind")
	assert.NotContains(t, out, "[id=")
}
