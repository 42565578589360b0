// Package event carries soft-delete lifecycle notifications from the audit
// trail to live subscribers.
package event

import "time"

type Type string

const (
	TypeRecordSoftDeleted  Type = "record.soft_deleted"
	TypeRecordsSoftDeleted Type = "records.soft_deleted"
	TypeRecordRestored     Type = "record.restored"
	TypeRecordPurged       Type = "record.purged"
	TypeRetentionSwept     Type = "retention.swept"
)

// Event is one lifecycle notification. Collection is duplicated from the
// payload so subscribers can filter without decoding it.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Collection string    `json:"collection"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
	ActorID    string    `json:"actor_id,omitempty"`
}

// RecordPayload identifies the record an event is about. Count is set for
// bulk soft deletes and sweeps where individual ids are not known.
type RecordPayload struct {
	Collection string `json:"collection"`
	ID         string `json:"id,omitempty"`
	Count      int64  `json:"count,omitempty"`
}

type Bus interface {
	Publish(e Event)
	// Subscribe delivers events of the given types, or every event when no
	// type is given. The returned func unsubscribes and closes the channel.
	Subscribe(types ...Type) (<-chan Event, func())
}
