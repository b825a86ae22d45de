package storage

import (
	"database/sql"
	"fmt"

	"github.com/davidwry/stash/internal/knowledge"
)

// FindOrCreateTag finds a tag by exact, case-sensitive name, creating it
// with usage 0 if absent.
func (d *DB) FindOrCreateTag(name string) (*knowledge.Tag, error) {
	if name == "" {
		return nil, knowledge.ErrEmptyTagName
	}
	return findOrCreateTag(d.db, name)
}

func findOrCreateTag(q execer, name string) (*knowledge.Tag, error) {
	tag, err := getTagByName(q, name)
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}

	res, err := q.Exec(`
		INSERT INTO tags (name, usage_count) VALUES (?, 0)
	`, name)
	if err != nil {
		return nil, fmt.Errorf("creating tag %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading tag id: %w", err)
	}
	return &knowledge.Tag{ID: id, Name: name}, nil
}

// GetTagByName returns a tag by exact name, or nil if absent.
func (d *DB) GetTagByName(name string) (*knowledge.Tag, error) {
	return getTagByName(d.db, name)
}

func getTagByName(q execer, name string) (*knowledge.Tag, error) {
	row := q.QueryRow(`
		SELECT id, name, usage_count, color, description FROM tags WHERE name = ?
	`, name)
	return scanTag(row)
}

// IncrementTagUsage adds one to a tag's usage counter.
func (d *DB) IncrementTagUsage(tagID int64) error {
	return incrementTagUsage(d.db, tagID)
}

func incrementTagUsage(q execer, tagID int64) error {
	_, err := q.Exec(`UPDATE tags SET usage_count = usage_count + 1 WHERE id = ?`, tagID)
	if err != nil {
		return fmt.Errorf("incrementing tag usage: %w", err)
	}
	return nil
}

// DecrementTagUsage subtracts one from a tag's usage counter, flooring at
// zero. The counter never goes negative.
func (d *DB) DecrementTagUsage(tagID int64) error {
	return decrementTagUsage(d.db, tagID)
}

func decrementTagUsage(q execer, tagID int64) error {
	_, err := q.Exec(`
		UPDATE tags SET usage_count = usage_count - 1
		WHERE id = ? AND usage_count > 0
	`, tagID)
	if err != nil {
		return fmt.Errorf("decrementing tag usage: %w", err)
	}
	return nil
}

// SetTagUsage overwrites a tag's usage counter with an authoritative value.
// Used by the reconciler when replaying a source's recorded counts.
func (d *DB) SetTagUsage(tagID int64, count int) error {
	return setTagUsage(d.db, tagID, count)
}

func setTagUsage(q execer, tagID int64, count int) error {
	if count < 0 {
		count = 0
	}
	_, err := q.Exec(`UPDATE tags SET usage_count = ? WHERE id = ?`, count, tagID)
	if err != nil {
		return fmt.Errorf("setting tag usage: %w", err)
	}
	return nil
}

// PopularTags returns tags ordered by usage count descending. Ties break by
// id ascending, i.e. insertion order, which is the stable order SQLite
// yields here.
func (d *DB) PopularTags(limit int) ([]knowledge.Tag, error) {
	rows, err := d.db.Query(`
		SELECT id, name, usage_count, color, description
		FROM tags
		ORDER BY usage_count DESC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying popular tags: %w", err)
	}
	defer rows.Close()

	return scanTags(rows)
}

// AllTags returns every tag ordered by name.
func (d *DB) AllTags() ([]knowledge.Tag, error) {
	rows, err := d.db.Query(`
		SELECT id, name, usage_count, color, description FROM tags ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	return scanTags(rows)
}

// entryTags returns the tags attached to an entry, in attachment order.
func (d *DB) entryTags(entryID int64) ([]knowledge.Tag, error) {
	rows, err := d.db.Query(`
		SELECT t.id, t.name, t.usage_count, t.color, t.description
		FROM tags t
		JOIN entry_tags et ON et.tag_id = t.id
		WHERE et.entry_id = ?
		ORDER BY t.id
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("querying entry tags: %w", err)
	}
	defer rows.Close()

	return scanTags(rows)
}

func scanTag(row *sql.Row) (*knowledge.Tag, error) {
	var t knowledge.Tag
	var color, description sql.NullString

	err := row.Scan(&t.ID, &t.Name, &t.UsageCount, &color, &description)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	t.Color = color.String
	t.Description = description.String
	return &t, nil
}

func scanTags(rows *sql.Rows) ([]knowledge.Tag, error) {
	var tags []knowledge.Tag
	for rows.Next() {
		var t knowledge.Tag
		var color, description sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &t.UsageCount, &color, &description); err != nil {
			return nil, err
		}
		t.Color = color.String
		t.Description = description.String
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
