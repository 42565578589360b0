package model

import "time"

// Field names of the soft-delete metadata carried by every annotated
// collection. Storage backends map them onto dedicated columns.
const (
	FieldID                 = "id"
	FieldDeletedAt          = "deletedAt"
	FieldDeletedByActorID   = "deletedByActorId"
	FieldDeletedByActorKind = "deletedByActorKind"
)

// MetadataFields lists the soft-delete fields in declaration order.
var MetadataFields = []string{FieldDeletedAt, FieldDeletedByActorID, FieldDeletedByActorKind}

// IsMetadataField reports whether name is one of the soft-delete fields.
func IsMetadataField(name string) bool {
	switch name {
	case FieldDeletedAt, FieldDeletedByActorID, FieldDeletedByActorKind:
		return true
	}
	return false
}

// Record is a single stored item of a collection. Values are JSON-compatible
// except deletedAt, which storage backends return as time.Time.
type Record map[string]any

func (r Record) ID() string {
	v, _ := r[FieldID].(string)
	return v
}

// DeletedAt returns the deletion timestamp, if any.
func (r Record) DeletedAt() (time.Time, bool) {
	switch v := r[FieldDeletedAt].(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v != nil && !v.IsZero() {
			return *v, true
		}
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (r Record) IsDeleted() bool {
	_, ok := r.DeletedAt()
	return ok
}

// Metadata extracts the soft-delete metadata of the record.
func (r Record) Metadata() SoftDeleteMetadata {
	var m SoftDeleteMetadata
	if t, ok := r.DeletedAt(); ok {
		m.DeletedAt = &t
	}
	if v, ok := r[FieldDeletedByActorID].(string); ok {
		m.DeletedByActorID = &v
	}
	switch v := r[FieldDeletedByActorKind].(type) {
	case ActorKind:
		m.DeletedByActorKind = &v
	case string:
		k := ActorKind(v)
		m.DeletedByActorKind = &k
	}
	return m
}

// Content returns a copy of the record without id and soft-delete metadata.
func (r Record) Content() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if k == FieldID || IsMetadataField(k) {
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case Record:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	default:
		return v
	}
}

// SoftDeleteMetadata is the typed view of the three soft-delete fields.
// Either all three are nil (active) or DeletedAt is set (soft-deleted).
type SoftDeleteMetadata struct {
	DeletedAt          *time.Time `json:"deletedAt"`
	DeletedByActorID   *string    `json:"deletedByActorId"`
	DeletedByActorKind *ActorKind `json:"deletedByActorKind"`
}

func (m SoftDeleteMetadata) Active() bool {
	return m.DeletedAt == nil
}

// Fields renders the metadata as an update payload.
func (m SoftDeleteMetadata) Fields() map[string]any {
	out := map[string]any{
		FieldDeletedAt:          nil,
		FieldDeletedByActorID:   nil,
		FieldDeletedByActorKind: nil,
	}
	if m.DeletedAt != nil {
		out[FieldDeletedAt] = m.DeletedAt.UTC()
	}
	if m.DeletedByActorID != nil {
		out[FieldDeletedByActorID] = *m.DeletedByActorID
	}
	if m.DeletedByActorKind != nil {
		out[FieldDeletedByActorKind] = string(*m.DeletedByActorKind)
	}
	return out
}

// ClearedMetadata is the update payload that returns a record to active.
func ClearedMetadata() map[string]any {
	return SoftDeleteMetadata{}.Fields()
}
