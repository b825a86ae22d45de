package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/davidwry/stash/internal/knowledge"
)

// CreateCollection creates a named grouping bucket for entries. Color and
// icon default when empty.
func (d *DB) CreateCollection(c knowledge.Collection) (*knowledge.Collection, error) {
	return createCollection(d.db, c)
}

func createCollection(q execer, c knowledge.Collection) (*knowledge.Collection, error) {
	if c.Color == "" {
		c.Color = knowledge.DefaultCollectionColor
	}
	if c.Icon == "" {
		c.Icon = knowledge.DefaultCollectionIcon
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	var metadataJSON sql.NullString
	if len(c.Metadata) > 0 {
		data, err := json.Marshal(c.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshaling collection metadata: %w", err)
		}
		metadataJSON = nullableStringValue(string(data))
	}

	isPrivate := 0
	if c.IsPrivate {
		isPrivate = 1
	}

	res, err := q.Exec(`
		INSERT INTO collections (name, description, color, icon, is_private, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.Name, nullableStringValue(c.Description), c.Color, c.Icon,
		isPrivate, metadataJSON, formatTime(c.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("creating collection %q: %w", c.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading collection id: %w", err)
	}
	c.ID = id
	return &c, nil
}

// GetCollection retrieves a collection by id, or nil if absent.
func (d *DB) GetCollection(id int64) (*knowledge.Collection, error) {
	row := d.db.QueryRow(`
		SELECT id, name, description, color, icon, is_private, metadata_json, created_at
		FROM collections WHERE id = ?
	`, id)
	return scanCollection(row)
}

// ListCollections returns all collections with their entry counts, ordered
// by creation time.
func (d *DB) ListCollections() ([]knowledge.Collection, error) {
	rows, err := d.db.Query(`
		SELECT c.id, c.name, c.description, c.color, c.icon, c.is_private,
			c.metadata_json, c.created_at,
			(SELECT COUNT(*) FROM entries e WHERE e.collection_id = c.id) AS entry_count
		FROM collections c
		ORDER BY c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var collections []knowledge.Collection
	for rows.Next() {
		var c knowledge.Collection
		var description, metadataJSON sql.NullString
		var isPrivate int
		var createdAt string
		var entryCount int

		err := rows.Scan(&c.ID, &c.Name, &description, &c.Color, &c.Icon,
			&isPrivate, &metadataJSON, &createdAt, &entryCount)
		if err != nil {
			return nil, err
		}

		c.Description = description.String
		c.IsPrivate = isPrivate != 0
		c.CreatedAt = parseTime(createdAt)
		c.EntryCount = entryCount
		if err := parseCollectionMetadata(&c, metadataJSON); err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

// CountCollections returns the total number of collections.
func (d *DB) CountCollections() (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM collections`).Scan(&count)
	return count, err
}

func parseCollectionMetadata(c *knowledge.Collection, metadataJSON sql.NullString) error {
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &c.Metadata); err != nil {
			return fmt.Errorf("parsing metadata for collection %d: %w", c.ID, err)
		}
	}
	return nil
}

func scanCollection(row *sql.Row) (*knowledge.Collection, error) {
	var c knowledge.Collection
	var description, metadataJSON sql.NullString
	var isPrivate int
	var createdAt string

	err := row.Scan(&c.ID, &c.Name, &description, &c.Color, &c.Icon,
		&isPrivate, &metadataJSON, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	c.Description = description.String
	c.IsPrivate = isPrivate != 0
	c.CreatedAt = parseTime(createdAt)
	if err := parseCollectionMetadata(&c, metadataJSON); err != nil {
		return nil, err
	}
	return &c, nil
}
