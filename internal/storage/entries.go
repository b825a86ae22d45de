package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/davidwry/stash/internal/knowledge"
)

// selectEntryFields contains the standard field list for entry SELECT queries.
const selectEntryFields = `id, content, repo, branch, commit_sha, author,
	project_type, embedding_json, collection_id, created_at, updated_at`

// AddEntryParams carries everything needed to create an entry atomically.
// Zero timestamps on Entry default to now; the reconciler supplies the
// original timestamps to preserve them.
type AddEntryParams struct {
	Entry    knowledge.Entry
	Tags     []string // explicit tags, increment usage
	AutoTags []string // suggested tags, attached without usage increment
	Metadata []knowledge.Metadata
}

// AddEntry creates an entry with its tags and metadata in one transaction.
// Any failure rolls the whole thing back.
func (d *DB) AddEntry(p AddEntryParams) (int64, error) {
	if p.Entry.Content == "" {
		return 0, knowledge.ErrEmptyContent
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := insertEntry(tx, &p.Entry)
	if err != nil {
		return 0, err
	}

	if err := attachTags(tx, id, p.Tags, true); err != nil {
		return 0, err
	}
	if err := attachTags(tx, id, p.AutoTags, false); err != nil {
		return 0, err
	}

	for _, m := range p.Metadata {
		if err := upsertMetadata(tx, id, m.Key, m.Value, m.Type); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing entry: %w", err)
	}
	return id, nil
}

// insertEntry writes the entry row and returns its new id.
func insertEntry(q execer, e *knowledge.Entry) (int64, error) {
	var embeddingJSON sql.NullString
	if len(e.Embedding) > 0 {
		data, err := json.Marshal(e.Embedding)
		if err != nil {
			return 0, fmt.Errorf("marshaling embedding: %w", err)
		}
		embeddingJSON = nullableStringValue(string(data))
	}

	res, err := q.Exec(`
		INSERT INTO entries (content, repo, branch, commit_sha, author,
			project_type, embedding_json, collection_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.Content,
		nullableStringValue(e.Repo), nullableStringValue(e.Branch),
		nullableStringValue(e.CommitSHA), nullableStringValue(e.Author),
		nullableStringValue(e.ProjectType),
		embeddingJSON,
		nullableInt64Value(e.CollectionID),
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading entry id: %w", err)
	}
	return id, nil
}

// attachTags links tag names to an entry, creating tags as needed and
// deduplicating by trimmed name. Blank names are skipped. Already-linked
// tags are left alone (the link table upsert is a no-op and usage is not
// incremented again).
func attachTags(q execer, entryID int64, names []string, incrementUsage bool) error {
	for _, name := range knowledge.NormalizeTagNames(names) {
		tag, err := findOrCreateTag(q, name)
		if err != nil {
			return err
		}

		res, err := q.Exec(`
			INSERT OR IGNORE INTO entry_tags (entry_id, tag_id) VALUES (?, ?)
		`, entryID, tag.ID)
		if err != nil {
			return fmt.Errorf("linking tag %q: %w", name, err)
		}

		linked, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("linking tag %q: %w", name, err)
		}
		if incrementUsage && linked > 0 {
			if err := incrementTagUsage(q, tag.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetEntry retrieves an entry with its tags, metadata, and collection
// attached. Returns nil if not found.
func (d *DB) GetEntry(id int64) (*knowledge.Entry, error) {
	row := d.db.QueryRow(`SELECT `+selectEntryFields+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil || e == nil {
		return e, err
	}

	if err := d.loadDetails(e); err != nil {
		return nil, err
	}
	return e, nil
}

// loadDetails attaches tags, metadata, and the collection to an entry.
func (d *DB) loadDetails(e *knowledge.Entry) error {
	tags, err := d.entryTags(e.ID)
	if err != nil {
		return err
	}
	e.Tags = tags

	meta, err := d.entryMetadata(e.ID)
	if err != nil {
		return err
	}
	e.Metadata = meta

	if e.CollectionID != 0 {
		col, err := d.GetCollection(e.CollectionID)
		if err != nil {
			return err
		}
		e.Collection = col
	}
	return nil
}

// DeleteEntry removes an entry with explicit cascades: each attached tag's
// usage counter is decremented, relationships in both directions are
// deleted, then metadata, tag links, and the entry row. Returns false if
// the entry does not exist. Atomic.
func (d *DB) DeleteEntry(id int64) (bool, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT COUNT(*) FROM entries WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking entry: %w", err)
	}
	if exists == 0 {
		return false, nil
	}

	rows, err := tx.Query(`SELECT tag_id FROM entry_tags WHERE entry_id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("listing entry tags: %w", err)
	}
	var tagIDs []int64
	for rows.Next() {
		var tagID int64
		if err := rows.Scan(&tagID); err != nil {
			rows.Close()
			return false, err
		}
		tagIDs = append(tagIDs, tagID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return false, err
	}
	rows.Close()

	for _, tagID := range tagIDs {
		if err := decrementTagUsage(tx, tagID); err != nil {
			return false, err
		}
	}

	deletes := []struct {
		stmt string
		args []any
	}{
		{`DELETE FROM relationships WHERE from_entry_id = ? OR to_entry_id = ?`, []any{id, id}},
		{`DELETE FROM entry_metadata WHERE entry_id = ?`, []any{id}},
		{`DELETE FROM entry_tags WHERE entry_id = ?`, []any{id}},
		{`DELETE FROM entries WHERE id = ?`, []any{id}},
	}
	for _, del := range deletes {
		if _, err := tx.Exec(del.stmt, del.args...); err != nil {
			return false, fmt.Errorf("deleting entry %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing delete: %w", err)
	}
	return true, nil
}

// SetMetadataValue upserts a metadata key for an entry. Setting an existing
// key overwrites its value and type; no history is kept.
func (d *DB) SetMetadataValue(entryID int64, key, value, typ string) error {
	if typ == "" {
		typ = knowledge.MetaString
	}
	if !knowledge.ValidMetadataType(typ) {
		return fmt.Errorf("%w: %q", knowledge.ErrUnknownMetadataType, typ)
	}
	return upsertMetadata(d.db, entryID, key, value, typ)
}

func upsertMetadata(q execer, entryID int64, key, value, typ string) error {
	if typ == "" {
		typ = knowledge.MetaString
	}
	_, err := q.Exec(`
		INSERT INTO entry_metadata (entry_id, key, value, type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(entry_id, key) DO UPDATE SET value = excluded.value, type = excluded.type
	`, entryID, key, value, typ)
	if err != nil {
		return fmt.Errorf("upserting metadata %q: %w", key, err)
	}
	return nil
}

// GetMetadataValue reads a metadata value with a fallback default.
func (d *DB) GetMetadataValue(entryID int64, key, def string) (string, error) {
	var value string
	err := d.db.QueryRow(`
		SELECT value FROM entry_metadata WHERE entry_id = ? AND key = ?
	`, entryID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading metadata %q: %w", key, err)
	}
	return value, nil
}

// GetMetadata returns the full metadata row for (entryID, key), or nil.
func (d *DB) GetMetadata(entryID int64, key string) (*knowledge.Metadata, error) {
	var m knowledge.Metadata
	err := d.db.QueryRow(`
		SELECT entry_id, key, value, type FROM entry_metadata
		WHERE entry_id = ? AND key = ?
	`, entryID, key).Scan(&m.EntryID, &m.Key, &m.Value, &m.Type)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata %q: %w", key, err)
	}
	return &m, nil
}

// entryMetadata returns all metadata rows for an entry, ordered by key.
func (d *DB) entryMetadata(entryID int64) ([]knowledge.Metadata, error) {
	rows, err := d.db.Query(`
		SELECT entry_id, key, value, type FROM entry_metadata
		WHERE entry_id = ? ORDER BY key
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("querying metadata: %w", err)
	}
	defer rows.Close()

	var meta []knowledge.Metadata
	for rows.Next() {
		var m knowledge.Metadata
		if err := rows.Scan(&m.EntryID, &m.Key, &m.Value, &m.Type); err != nil {
			return nil, err
		}
		meta = append(meta, m)
	}
	return meta, rows.Err()
}

// RelatedByTags returns entries sharing at least one tag with the given
// entry, ranked by shared-tag count descending, excluding the entry itself.
func (d *DB) RelatedByTags(entryID int64, limit int) ([]knowledge.Entry, error) {
	rows, err := d.db.Query(`
		SELECT `+prefixEntryFields("e")+`, COUNT(et2.tag_id) AS shared
		FROM entries e
		JOIN entry_tags et2 ON et2.entry_id = e.id
		WHERE e.id != ?
		  AND et2.tag_id IN (SELECT tag_id FROM entry_tags WHERE entry_id = ?)
		GROUP BY e.id
		ORDER BY shared DESC, e.id ASC
		LIMIT ?
	`, entryID, entryID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying related entries: %w", err)
	}
	defer rows.Close()

	var entries []knowledge.Entry
	for rows.Next() {
		e, shared, err := scanEntryWithExtra(rows)
		if err != nil {
			return nil, err
		}
		_ = shared
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// CountEntries returns the total number of entries.
func (d *DB) CountEntries() (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&count)
	return count, err
}

// EntriesWithEmbeddings returns ids and decoded vectors for every entry that
// carries an embedding.
func (d *DB) EntriesWithEmbeddings() (map[int64][]float32, error) {
	rows, err := d.db.Query(`
		SELECT id, embedding_json FROM entries
		WHERE embedding_json IS NOT NULL AND embedding_json != ''
	`)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	vectors := make(map[int64][]float32)
	for rows.Next() {
		var id int64
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			return nil, fmt.Errorf("parsing embedding for entry %d: %w", id, err)
		}
		vectors[id] = vec
	}
	return vectors, rows.Err()
}

// prefixEntryFields qualifies the entry field list with a table alias.
func prefixEntryFields(alias string) string {
	return alias + `.id, ` + alias + `.content, ` + alias + `.repo, ` +
		alias + `.branch, ` + alias + `.commit_sha, ` + alias + `.author, ` +
		alias + `.project_type, ` + alias + `.embedding_json, ` +
		alias + `.collection_id, ` + alias + `.created_at, ` + alias + `.updated_at`
}

func scanEntry(s scanner) (*knowledge.Entry, error) {
	var e knowledge.Entry
	var repo, branch, commitSHA, author, projectType, embeddingJSON sql.NullString
	var collectionID sql.NullInt64
	var createdAt, updatedAt string

	err := s.Scan(
		&e.ID, &e.Content, &repo, &branch, &commitSHA, &author,
		&projectType, &embeddingJSON, &collectionID, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	e.Repo = repo.String
	e.Branch = branch.String
	e.CommitSHA = commitSHA.String
	e.Author = author.String
	e.ProjectType = projectType.String
	e.CollectionID = collectionID.Int64
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)

	if embeddingJSON.Valid && embeddingJSON.String != "" {
		if err := json.Unmarshal([]byte(embeddingJSON.String), &e.Embedding); err != nil {
			return nil, fmt.Errorf("parsing embedding for entry %d: %w", e.ID, err)
		}
	}

	return &e, nil
}

// scanEntryWithExtra scans an entry row that carries one trailing extra
// column (e.g. a computed count).
func scanEntryWithExtra(s scanner) (*knowledge.Entry, int, error) {
	var e knowledge.Entry
	var repo, branch, commitSHA, author, projectType, embeddingJSON sql.NullString
	var collectionID sql.NullInt64
	var createdAt, updatedAt string
	var extra int

	err := s.Scan(
		&e.ID, &e.Content, &repo, &branch, &commitSHA, &author,
		&projectType, &embeddingJSON, &collectionID, &createdAt, &updatedAt,
		&extra,
	)
	if err != nil {
		return nil, 0, err
	}

	e.Repo = repo.String
	e.Branch = branch.String
	e.CommitSHA = commitSHA.String
	e.Author = author.String
	e.ProjectType = projectType.String
	e.CollectionID = collectionID.Int64
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)

	if embeddingJSON.Valid && embeddingJSON.String != "" {
		if err := json.Unmarshal([]byte(embeddingJSON.String), &e.Embedding); err != nil {
			return nil, 0, fmt.Errorf("parsing embedding for entry %d: %w", e.ID, err)
		}
	}

	return &e, extra, nil
}

func scanEntries(rows *sql.Rows) ([]knowledge.Entry, error) {
	var entries []knowledge.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries, rows.Err()
}

// Touch updates an entry's updated_at timestamp.
func (d *DB) Touch(entryID int64, t time.Time) error {
	_, err := d.db.Exec(`UPDATE entries SET updated_at = ? WHERE id = ?`,
		formatTime(t), entryID)
	return err
}
