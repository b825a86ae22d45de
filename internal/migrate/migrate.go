// Package migrate reconciles external datasets into the knowledge store: a
// legacy table set or a JSON backup is bulk-merged in one transaction per
// run, with per-record failures isolated rather than aborting the batch.
package migrate

import (
	"fmt"

	"github.com/davidwry/stash/internal/knowledge"
	"github.com/davidwry/stash/internal/storage"
)

// Outcome statuses.
const (
	StatusSuccess = "success" // all records merged
	StatusPartial = "partial" // some records merged, errors collected
	StatusNoData  = "no_data" // source absent; nothing to do, not a failure
	StatusError   = "error"   // precondition or fatal failure, nothing committed
)

// Outcome reports the result of one reconciliation run.
type Outcome struct {
	EntriesMigrated    int      `json:"entries_migrated"`
	TagsMigrated       int      `json:"tags_migrated"`
	CollectionsCreated int      `json:"collections_created"`
	Errors             []string `json:"errors"`
	Status             string   `json:"status"`
	Message            string   `json:"message,omitempty"`
}

// finalize derives the overall status from the collected errors. A run that
// merged nothing and collected errors is an error, not a partial success.
func (o *Outcome) finalize() {
	if o.Status != "" {
		return
	}
	switch {
	case len(o.Errors) == 0:
		o.Status = StatusSuccess
	case o.EntriesMigrated > 0:
		o.Status = StatusPartial
	default:
		o.Status = StatusError
	}
}

// Service merges external datasets into the store.
type Service struct {
	store *storage.DB
}

// NewService creates a reconciler over the given store.
func NewService(store *storage.DB) *Service {
	return &Service{store: store}
}

// record is one source entry materialized into the shape the merge replays:
// the entry row plus its tag names and metadata pairs.
type record struct {
	Entry    knowledge.Entry
	Tags     []string
	Metadata []knowledge.Metadata
}

// source is a materialized dataset: the records to replay plus the source's
// authoritative tag counters.
type source struct {
	Records []record
	Tags    []TagCount
}

// TagCount is a source tag with its recorded usage counter. ID is carried
// only so backup join rows can be resolved back to names.
type TagCount struct {
	ID         int64  `json:"id,omitempty"`
	Name       string `json:"name"`
	UsageCount int    `json:"usage_count"`
}

// merge replays a materialized source into the store inside one
// transaction. A landing collection holds everything from this run. Each
// record is replayed independently: its failure is recorded and the loop
// continues. After all records, the source's tag counters overwrite
// whatever the replay accumulated; the source's counts are authoritative.
func (s *Service) merge(src source, collectionName, collectionDesc string, out *Outcome) error {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	landing, err := tx.CreateCollection(knowledge.Collection{
		Name:        collectionName,
		Description: collectionDesc,
		Color:       "#64748B",
		Icon:        "package",
	})
	if err != nil {
		return fmt.Errorf("creating landing collection: %w", err)
	}
	out.CollectionsCreated++

	for _, rec := range src.Records {
		rec.Entry.CollectionID = landing.ID
		if _, err := tx.CreateEntry(rec.Entry, rec.Tags, rec.Metadata); err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("entry %d: %v", rec.Entry.ID, err))
			continue
		}
		out.EntriesMigrated++
	}

	for _, tc := range src.Tags {
		updated, err := tx.SetTagUsageByName(tc.Name, tc.UsageCount)
		if err != nil {
			return fmt.Errorf("reconciling tag %q: %w", tc.Name, err)
		}
		if updated {
			out.TagsMigrated++
		}
	}

	return tx.Commit()
}
