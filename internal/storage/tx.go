package storage

import (
	"fmt"

	"github.com/davidwry/stash/internal/knowledge"
)

// Tx is an open transaction on the store. The reconciler uses it to run a
// whole merge atomically while still isolating per-record failures: a
// failed record's error is collected by the caller and the transaction
// stays open for the next record.
type Tx struct {
	tx interface {
		Commit() error
		Rollback() error
	}
	q execer
}

// Begin opens a transaction.
func (d *DB) Begin() (*Tx, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &Tx{tx: tx, q: tx}, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. Safe to call after Commit.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// CreateCollection creates a collection inside the transaction.
func (t *Tx) CreateCollection(c knowledge.Collection) (*knowledge.Collection, error) {
	return createCollection(t.q, c)
}

// CreateEntry creates an entry with explicit tags and metadata inside the
// transaction. The tag path increments usage, mirroring historical counts
// during replay. Timestamps on the entry are preserved as given.
func (t *Tx) CreateEntry(e knowledge.Entry, tags []string, metadata []knowledge.Metadata) (int64, error) {
	if e.Content == "" {
		return 0, knowledge.ErrEmptyContent
	}

	id, err := insertEntry(t.q, &e)
	if err != nil {
		return 0, err
	}

	if err := attachTags(t.q, id, tags, true); err != nil {
		return 0, err
	}

	for _, m := range metadata {
		if err := upsertMetadata(t.q, id, m.Key, m.Value, m.Type); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// SetTagUsageByName overwrites a tag's usage counter with an authoritative
// value, reporting whether a tag of that name exists. Missing tags are not
// created.
func (t *Tx) SetTagUsageByName(name string, count int) (bool, error) {
	tag, err := getTagByName(t.q, name)
	if err != nil {
		return false, err
	}
	if tag == nil {
		return false, nil
	}
	if err := setTagUsage(t.q, tag.ID, count); err != nil {
		return false, err
	}
	return true, nil
}
