package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
)

func TestSQLBuilder_Where(t *testing.T) {
	t.Parallel()

	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := filter.New(
		filter.IsNull(model.FieldDeletedAt),
		filter.Eq("title", "hello"),
		filter.Lt(model.FieldDeletedAt, cutoff),
	).WithAny(filter.Containsi("name", "50%"), filter.Eq(model.FieldID, "7"))

	var b sqlBuilder
	where, err := b.where(articles, f)
	require.NoError(t, err)

	assert.Equal(t,
		"collection_uid = $1 AND deleted_at IS NULL AND (data->>$2) = $3 AND deleted_at < $4 AND ((data->>$5) ILIKE $6 OR id = $7)",
		where)
	assert.Equal(t, []any{articles, "title", "hello", cutoff, "name", `%50\%%`, "7"}, b.args)
}

func TestSQLBuilder_NumericAndListOperators(t *testing.T) {
	t.Parallel()

	var b sqlBuilder
	where, err := b.where(articles, filter.New(
		filter.Condition{Field: "views", Operator: filter.OpGte, Value: 10},
		filter.Condition{Field: model.FieldID, Operator: filter.OpIn, Value: []any{"1", 2}},
	))
	require.NoError(t, err)

	assert.Equal(t, "collection_uid = $1 AND (data->>$2)::numeric >= $3 AND id = ANY($4)", where)
	assert.Equal(t, []any{articles, "views", 10, []string{"1", "2"}}, b.args)
}

func TestSQLBuilder_RejectsBadTimestamps(t *testing.T) {
	t.Parallel()

	var b sqlBuilder
	_, err := b.where(articles, filter.New(filter.Lt(model.FieldDeletedAt, "yesterday")))
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = b.where(articles, filter.New(filter.Condition{Field: "x", Operator: "regex"}))
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestSQLBuilder_Set(t *testing.T) {
	t.Parallel()

	var b sqlBuilder
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	set, err := b.set(map[string]any{
		model.FieldDeletedAt:          now,
		model.FieldDeletedByActorID:   nil,
		model.FieldDeletedByActorKind: model.ActorKindAPI,
	})
	require.NoError(t, err)

	assert.Equal(t, "data = data || $1::jsonb, updated_at = now(), deleted_at = $2, deleted_by_actor_id = NULL, deleted_by_actor_kind = $3", set)
	require.Len(t, b.args, 3)
	assert.Equal(t, []byte("{}"), b.args[0])
	assert.Equal(t, now, b.args[1])
	assert.Equal(t, "api", b.args[2])
}

func TestSQLBuilder_OrderBy(t *testing.T) {
	t.Parallel()

	var b sqlBuilder
	assert.Equal(t, "created_at, id", b.orderBy(filter.Query{}))
	assert.Equal(t, "deleted_at DESC NULLS LAST, id", b.orderBy(filter.Query{OrderBy: model.FieldDeletedAt, Desc: true}))
	assert.Equal(t, "(data->>$1) ASC NULLS LAST, id", b.orderBy(filter.Query{OrderBy: "title"}))
}
