package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
)

const recordColumns = `id, data, deleted_at, deleted_by_actor_id, deleted_by_actor_kind`

// PostgresStore persists every collection in the records table. Content
// lives in a JSONB column; soft-delete metadata has dedicated columns.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FindOne(ctx context.Context, uid string, q filter.Query) (model.Record, error) {
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

func (s *PostgresStore) FindMany(ctx context.Context, uid string, q filter.Query) ([]model.Record, error) {
	var b sqlBuilder
	where, err := b.where(uid, q.Filter)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + recordColumns + ` FROM records WHERE ` + where + ` ORDER BY ` + b.orderBy(q)
	if q.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(q.Limit)
	}
	if q.Offset > 0 {
		query += ` OFFSET ` + strconv.Itoa(q.Offset)
	}

	rows, err := s.pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	defer rows.Close()

	records := make([]model.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Count(ctx context.Context, uid string, f filter.Filter) (int64, error) {
	var b sqlBuilder
	where, err := b.where(uid, f)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM records WHERE `+where, b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Create(ctx context.Context, uid string, rec model.Record) (model.Record, error) {
	id := rec.ID()
	if id == "" {
		id = uuid.NewString()
	}

	content, meta, err := splitRecord(rec)
	if err != nil {
		return nil, err
	}
	deletedAt, actorID, actorKind, err := metadataColumns(meta)
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO records
		 (collection_uid, id, data, deleted_at, deleted_by_actor_id, deleted_by_actor_kind)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+recordColumns,
		uid, id, content, deletedAt, actorID, actorKind)

	created, err := scanRecord(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: record %s already exists in %s", model.ErrInvalidInput, id, uid)
		}
		return nil, err
	}
	return created, nil
}

func (s *PostgresStore) Update(ctx context.Context, uid, id string, data map[string]any, guard filter.Filter) (model.Record, error) {
	var b sqlBuilder
	set, err := b.set(data)
	if err != nil {
		return nil, err
	}
	where, err := b.where(uid, guard.With(filter.Eq(model.FieldID, id)))
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE records SET `+set+` WHERE `+where+` RETURNING `+recordColumns, b.args...)
	return scanRecord(row)
}

func (s *PostgresStore) UpdateMany(ctx context.Context, uid string, f filter.Filter, data map[string]any) (int64, error) {
	var b sqlBuilder
	set, err := b.set(data)
	if err != nil {
		return 0, err
	}
	where, err := b.where(uid, f)
	if err != nil {
		return 0, err
	}

	tag, err := s.pool.Exec(ctx, `UPDATE records SET `+set+` WHERE `+where, b.args...)
	if err != nil {
		return 0, fmt.Errorf("update records: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Delete(ctx context.Context, uid, id string, guard filter.Filter) (model.Record, error) {
	var b sqlBuilder
	where, err := b.where(uid, guard.With(filter.Eq(model.FieldID, id)))
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `DELETE FROM records WHERE `+where+` RETURNING `+recordColumns, b.args...)
	return scanRecord(row)
}

func (s *PostgresStore) DeleteMany(ctx context.Context, uid string, f filter.Filter) (int64, error) {
	var b sqlBuilder
	where, err := b.where(uid, f)
	if err != nil {
		return 0, err
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM records WHERE `+where, b.args...)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	return tag.RowsAffected(), nil
}

// set renders the SET list of an update. Content fields are merged into the
// JSONB document; metadata fields map onto their columns.
func (b *sqlBuilder) set(data map[string]any) (string, error) {
	content, meta, err := splitRecord(data)
	if err != nil {
		return "", err
	}

	parts := []string{"data = data || " + b.arg(content) + "::jsonb", "updated_at = now()"}
	for _, field := range model.MetadataFields {
		v, ok := meta[field]
		if !ok {
			continue
		}
		col, kind := b.column(field)
		if v == nil {
			parts = append(parts, col+" = NULL")
			continue
		}
		val, err := sqlValue(kind, v)
		if err != nil {
			return "", err
		}
		parts = append(parts, col+" = "+b.arg(val))
	}
	return strings.Join(parts, ", "), nil
}

// splitRecord separates JSON content from metadata fields. The id is
// dropped from content since it has its own column.
func splitRecord(rec map[string]any) ([]byte, map[string]any, error) {
	content := make(map[string]any, len(rec))
	meta := make(map[string]any, len(model.MetadataFields))
	for k, v := range rec {
		switch {
		case k == model.FieldID:
		case model.IsMetadataField(k):
			meta[k] = v
		default:
			content[k] = v
		}
	}
	data, err := json.Marshal(content)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: encode record: %v", model.ErrInvalidInput, err)
	}
	return data, meta, nil
}

func metadataColumns(meta map[string]any) (*time.Time, *string, *string, error) {
	var (
		deletedAt *time.Time
		actorID   *string
		actorKind *string
	)
	if v := meta[model.FieldDeletedAt]; v != nil {
		t, err := toTime(v)
		if err != nil {
			return nil, nil, nil, err
		}
		deletedAt = &t
	}
	if v := meta[model.FieldDeletedByActorID]; v != nil {
		s := fmt.Sprint(v)
		actorID = &s
	}
	if v := meta[model.FieldDeletedByActorKind]; v != nil {
		s := fmt.Sprint(v)
		actorKind = &s
	}
	return deletedAt, actorID, actorKind, nil
}

func scanRecord(row pgx.Row) (model.Record, error) {
	var (
		id        string
		data      []byte
		deletedAt *time.Time
		actorID   *string
		actorKind *string
	)
	err := row.Scan(&id, &data, &deletedAt, &actorID, &actorKind)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}

	rec := model.Record{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", id, err)
		}
	}
	rec[model.FieldID] = id
	if deletedAt != nil {
		rec[model.FieldDeletedAt] = deletedAt.UTC()
	}
	if actorID != nil {
		rec[model.FieldDeletedByActorID] = *actorID
	}
	if actorKind != nil {
		rec[model.FieldDeletedByActorKind] = *actorKind
	}
	return rec, nil
}
