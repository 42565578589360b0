package model

import "time"

// BulkItem addresses one record in a bulk restore or purge request.
type BulkItem struct {
	CollectionUID string `json:"collection"`
	RecordID      string `json:"id"`
}

type BulkItemResult struct {
	CollectionUID string   `json:"collection"`
	RecordID      string   `json:"id"`
	Success       bool     `json:"success"`
	Code          string   `json:"code,omitempty"`
	Error         string   `json:"error,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	Err           error    `json:"-"`
}

// BulkOperationResult aggregates a batch. Succeeded+Failed equals len(Items).
type BulkOperationResult struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Items     []BulkItemResult `json:"items"`
}

type RestoreResult struct {
	Record   Record   `json:"record"`
	Warnings []string `json:"warnings"`
}

type PurgeResult struct {
	CollectionUID string `json:"collection"`
	RecordID      string `json:"id"`
	Purged        bool   `json:"purged"`
}

// DeletedEntry is one soft-deleted record as shown by the explorer.
type DeletedEntry struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	DeletedAt          *time.Time `json:"deletedAt"`
	DeletedByActorID   *string    `json:"deletedByActorId"`
	DeletedByActorKind *ActorKind `json:"deletedByActorKind"`
	Record             Record     `json:"record"`
}

// DeletedGroup is one page of soft-deleted records of a single collection.
type DeletedGroup struct {
	CollectionUID string         `json:"collection"`
	DisplayName   string         `json:"displayName"`
	Kind          Kind           `json:"kind"`
	Total         int64          `json:"total"`
	Entries       []DeletedEntry `json:"entries"`
}

// SweepResult reports a retention pass.
type SweepResult struct {
	Cutoff       time.Time        `json:"cutoff"`
	DryRun       bool             `json:"dryRun"`
	Purged       int64            `json:"purged"`
	ByCollection map[string]int64 `json:"byCollection"`
}

// Add appends an item result and updates the counters.
func (r *BulkOperationResult) Add(item BulkItemResult) {
	if item.Success {
		r.Succeeded++
	} else {
		r.Failed++
	}
	r.Items = append(r.Items, item)
}
