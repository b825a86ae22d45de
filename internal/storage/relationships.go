package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/davidwry/stash/internal/knowledge"
)

// CreateRelationship creates a single directed edge between two entries.
// Both endpoints must exist and the type must come from the closed
// vocabulary.
func (d *DB) CreateRelationship(r knowledge.Relationship) (*knowledge.Relationship, error) {
	if err := r.ValidateForCreate(); err != nil {
		return nil, err
	}

	for _, id := range []int64{r.FromEntryID, r.ToEntryID} {
		var exists int
		if err := d.db.QueryRow(`SELECT COUNT(*) FROM entries WHERE id = ?`, id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("checking entry %d: %w", id, err)
		}
		if exists == 0 {
			return nil, fmt.Errorf("entry %d: %w", id, knowledge.ErrNotFound)
		}
	}

	return insertRelationship(d.db, r)
}

func insertRelationship(q execer, r knowledge.Relationship) (*knowledge.Relationship, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	var metadataJSON sql.NullString
	if len(r.Metadata) > 0 {
		data, err := json.Marshal(r.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshaling relationship metadata: %w", err)
		}
		metadataJSON = nullableStringValue(string(data))
	}

	res, err := q.Exec(`
		INSERT INTO relationships (from_entry_id, to_entry_id, type, strength, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.FromEntryID, r.ToEntryID, r.Type, r.Strength, metadataJSON, formatTime(r.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("creating relationship: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading relationship id: %w", err)
	}
	r.ID = id
	return &r, nil
}

// CreateBidirectional creates a forward edge and its mirror with the same
// type and strength. The two rows are independent: deleting one does not
// delete the other.
func (d *DB) CreateBidirectional(r knowledge.Relationship) (forward, reverse *knowledge.Relationship, err error) {
	forward, err = d.CreateRelationship(r)
	if err != nil {
		return nil, nil, err
	}

	mirror := r
	mirror.FromEntryID, mirror.ToEntryID = r.ToEntryID, r.FromEntryID
	reverse, err = d.CreateRelationship(mirror)
	if err != nil {
		return nil, nil, err
	}
	return forward, reverse, nil
}

// RelationshipsFrom returns the outgoing edges of an entry.
func (d *DB) RelationshipsFrom(entryID int64) ([]knowledge.Relationship, error) {
	return d.queryRelationships(`from_entry_id = ?`, entryID)
}

// RelationshipsTo returns the incoming edges of an entry.
func (d *DB) RelationshipsTo(entryID int64) ([]knowledge.Relationship, error) {
	return d.queryRelationships(`to_entry_id = ?`, entryID)
}

func (d *DB) queryRelationships(where string, args ...any) ([]knowledge.Relationship, error) {
	rows, err := d.db.Query(`
		SELECT id, from_entry_id, to_entry_id, type, strength, metadata_json, created_at
		FROM relationships WHERE `+where+` ORDER BY id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	var rels []knowledge.Relationship
	for rows.Next() {
		var r knowledge.Relationship
		var metadataJSON sql.NullString
		var createdAt string

		err := rows.Scan(&r.ID, &r.FromEntryID, &r.ToEntryID, &r.Type,
			&r.Strength, &metadataJSON, &createdAt)
		if err != nil {
			return nil, err
		}

		r.CreatedAt = parseTime(createdAt)
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &r.Metadata); err != nil {
				return nil, fmt.Errorf("parsing metadata for relationship %d: %w", r.ID, err)
			}
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// DeleteRelationship removes a single edge by id. Returns false if absent.
func (d *DB) DeleteRelationship(id int64) (bool, error) {
	res, err := d.db.Exec(`DELETE FROM relationships WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting relationship: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
