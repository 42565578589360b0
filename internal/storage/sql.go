package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-soft-delete/internal/filter"
	"go-soft-delete/internal/model"
)

type columnKind int

const (
	columnText columnKind = iota
	columnTime
	columnJSON
)

// sqlBuilder accumulates positional arguments while rendering filter
// conditions into a WHERE clause for the records table.
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *sqlBuilder) column(field string) (string, columnKind) {
	switch field {
	case model.FieldID:
		return "id", columnText
	case model.FieldDeletedAt:
		return "deleted_at", columnTime
	case model.FieldDeletedByActorID:
		return "deleted_by_actor_id", columnText
	case model.FieldDeletedByActorKind:
		return "deleted_by_actor_kind", columnText
	default:
		return "(data->>" + b.arg(field) + ")", columnJSON
	}
}

func (b *sqlBuilder) where(uid string, f filter.Filter) (string, error) {
	parts := []string{"collection_uid = " + b.arg(uid)}
	for _, c := range f.Conditions {
		clause, err := b.condition(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, clause)
	}
	if len(f.Any) > 0 {
		alts := make([]string, 0, len(f.Any))
		for _, c := range f.Any {
			clause, err := b.condition(c)
			if err != nil {
				return "", err
			}
			alts = append(alts, clause)
		}
		parts = append(parts, "("+strings.Join(alts, " OR ")+")")
	}
	return strings.Join(parts, " AND "), nil
}

func (b *sqlBuilder) condition(c filter.Condition) (string, error) {
	if err := c.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	expr, kind := b.column(c.Field)

	switch c.Operator {
	case filter.OpNull:
		return expr + " IS NULL", nil
	case filter.OpNotNull:
		return expr + " IS NOT NULL", nil
	case filter.OpEq, filter.OpNe:
		if c.Value == nil {
			if c.Operator == filter.OpEq {
				return expr + " IS NULL", nil
			}
			return expr + " IS NOT NULL", nil
		}
		v, err := sqlValue(kind, c.Value)
		if err != nil {
			return "", err
		}
		if c.Operator == filter.OpEq {
			return expr + " = " + b.arg(v), nil
		}
		return expr + " IS DISTINCT FROM " + b.arg(v), nil
	case filter.OpGt, filter.OpGte, filter.OpLt, filter.OpLte:
		op := map[filter.Operator]string{filter.OpGt: ">", filter.OpGte: ">=", filter.OpLt: "<", filter.OpLte: "<="}[c.Operator]
		if kind == columnJSON && isNumber(c.Value) {
			return expr + "::numeric " + op + " " + b.arg(c.Value), nil
		}
		v, err := sqlValue(kind, c.Value)
		if err != nil {
			return "", err
		}
		return expr + " " + op + " " + b.arg(v), nil
	case filter.OpIn:
		list := listValues(c.Value)
		if kind == columnTime {
			times := make([]time.Time, 0, len(list))
			for _, item := range list {
				t, err := toTime(item)
				if err != nil {
					return "", err
				}
				times = append(times, t)
			}
			return expr + " = ANY(" + b.arg(times) + ")", nil
		}
		texts := make([]string, len(list))
		for i, item := range list {
			texts[i] = fmt.Sprint(item)
		}
		return expr + " = ANY(" + b.arg(texts) + ")", nil
	case filter.OpContainsi:
		if kind == columnTime {
			expr += "::text"
		}
		return expr + " ILIKE " + b.arg("%"+escapeLike(fmt.Sprint(c.Value))+"%"), nil
	}
	return "", fmt.Errorf("%w: unsupported operator %q", model.ErrInvalidInput, c.Operator)
}

func (b *sqlBuilder) orderBy(q filter.Query) string {
	if q.OrderBy == "" {
		return "created_at, id"
	}
	expr, _ := b.column(q.OrderBy)
	dir := " ASC"
	if q.Desc {
		dir = " DESC"
	}
	return expr + dir + " NULLS LAST, id"
}

func sqlValue(kind columnKind, v any) (any, error) {
	if kind == columnTime {
		return toTime(v)
	}
	if s, ok := v.(model.ActorKind); ok {
		return string(s), nil
	}
	return fmt.Sprint(v), nil
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		if t != nil {
			return t.UTC(), nil
		}
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %v is not a timestamp", model.ErrInvalidInput, v)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}

func listValues(v any) []any {
	switch list := v.(type) {
	case []any:
		return list
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(list))
		for i, n := range list {
			out[i] = n
		}
		return out
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
