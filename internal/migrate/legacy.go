package migrate

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/davidwry/stash/internal/knowledge"
	_ "modernc.org/sqlite"
)

// Legacy table names, in the order the destructive cleanup drops them
// (dependents first).
var legacyDropOrder = []string{
	"knowledge_relationships",
	"knowledge_metadata",
	"knowledge_entry_tags",
	"knowledge_entries",
	"knowledge_tags",
}

// requiredLegacyTables must all exist for a migration to have anything to do.
var requiredLegacyTables = []string{
	"knowledge_entries",
	"knowledge_tags",
	"knowledge_entry_tags",
}

// MigrateFromLegacy merges a legacy store file into the knowledge store.
// A missing file or missing required tables is a no_data outcome, not an
// error, so repeated runs on a fresh install are harmless no-ops.
func (s *Service) MigrateFromLegacy(legacyPath string) *Outcome {
	out := &Outcome{Errors: []string{}}

	if _, err := os.Stat(legacyPath); os.IsNotExist(err) {
		out.Status = StatusNoData
		out.Message = "No legacy knowledge data found to migrate."
		return out
	}

	legacy, err := sql.Open("sqlite", legacyPath)
	if err != nil {
		out.Status = StatusError
		out.Errors = append(out.Errors, fmt.Sprintf("opening legacy store: %v", err))
		return out
	}
	defer legacy.Close()

	ok, err := legacyTablesExist(legacy)
	if err != nil {
		out.Status = StatusError
		out.Errors = append(out.Errors, fmt.Sprintf("checking legacy tables: %v", err))
		return out
	}
	if !ok {
		out.Status = StatusNoData
		out.Message = "No legacy knowledge data found to migrate."
		return out
	}

	src, err := readLegacySource(legacy)
	if err != nil {
		out.Status = StatusError
		out.Errors = append(out.Errors, err.Error())
		return out
	}

	if err := s.merge(*src, "Migrated from legacy store",
		"Knowledge entries migrated from the legacy core system", out); err != nil {
		*out = Outcome{
			Status: StatusError,
			Errors: append(out.Errors, err.Error()),
		}
		return out
	}

	out.finalize()
	return out
}

// RemovalResult reports which legacy tables a cleanup actually dropped.
type RemovalResult struct {
	TablesRemoved []string `json:"tables_removed"`
	Errors        []string `json:"errors"`
}

// RemoveLegacySystem drops the legacy tables in dependency order inside one
// transaction, skipping tables that do not exist. Destructive; callers must
// gate it behind explicit confirmation.
func (s *Service) RemoveLegacySystem(legacyPath string) *RemovalResult {
	res := &RemovalResult{TablesRemoved: []string{}, Errors: []string{}}

	legacy, err := sql.Open("sqlite", legacyPath)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("opening legacy store: %v", err))
		return res
	}
	defer legacy.Close()

	tx, err := legacy.Begin()
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("beginning transaction: %v", err))
		return res
	}
	defer tx.Rollback()

	for _, table := range legacyDropOrder {
		exists, err := tableExists(tx, table)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("checking table %s: %v", table, err))
			return res
		}
		if !exists {
			continue
		}
		if _, err := tx.Exec("DROP TABLE " + table); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("dropping table %s: %v", table, err))
			return res
		}
		res.TablesRemoved = append(res.TablesRemoved, table)
	}

	if err := tx.Commit(); err != nil {
		res.TablesRemoved = res.TablesRemoved[:0]
		res.Errors = append(res.Errors, fmt.Sprintf("committing removal: %v", err))
	}
	return res
}

// queryrower is satisfied by *sql.DB and *sql.Tx.
type queryrower interface {
	QueryRow(query string, args ...any) *sql.Row
}

func tableExists(q queryrower, name string) (bool, error) {
	var count int
	err := q.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?
	`, name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func legacyTablesExist(db *sql.DB) (bool, error) {
	for _, table := range requiredLegacyTables {
		ok, err := tableExists(db, table)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// readLegacySource materializes the legacy table set into records: each
// legacy entry with its joined tag names and metadata rows, preserving the
// original content, provenance, and timestamps.
func readLegacySource(db *sql.DB) (*source, error) {
	rows, err := db.Query(`
		SELECT id, content, repo, branch, commit_sha, author, project_type,
			created_at, updated_at
		FROM knowledge_entries ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("reading legacy entries: %w", err)
	}
	defer rows.Close()

	var src source
	for rows.Next() {
		var rec record
		var content sql.NullString
		var repo, branch, commitSHA, author, projectType sql.NullString
		var createdAt, updatedAt sql.NullString

		err := rows.Scan(&rec.Entry.ID, &content, &repo, &branch, &commitSHA,
			&author, &projectType, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning legacy entry: %w", err)
		}

		rec.Entry.Content = content.String
		rec.Entry.Repo = repo.String
		rec.Entry.Branch = branch.String
		rec.Entry.CommitSHA = commitSHA.String
		rec.Entry.Author = author.String
		rec.Entry.ProjectType = projectType.String
		rec.Entry.CreatedAt = parseLegacyTime(createdAt.String)
		rec.Entry.UpdatedAt = parseLegacyTime(updatedAt.String)

		src.Records = append(src.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading legacy entries: %w", err)
	}

	for i := range src.Records {
		rec := &src.Records[i]

		tags, err := legacyEntryTags(db, rec.Entry.ID)
		if err != nil {
			return nil, err
		}
		rec.Tags = tags

		meta, err := legacyEntryMetadata(db, rec.Entry.ID)
		if err != nil {
			return nil, err
		}
		rec.Metadata = meta
	}

	src.Tags, err = legacyTagCounts(db)
	if err != nil {
		return nil, err
	}
	return &src, nil
}

func legacyEntryTags(db *sql.DB, entryID int64) ([]string, error) {
	rows, err := db.Query(`
		SELECT kt.name
		FROM knowledge_entry_tags ket
		JOIN knowledge_tags kt ON kt.id = ket.tag_id
		WHERE ket.entry_id = ?
		ORDER BY kt.id
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("reading legacy tags for entry %d: %w", entryID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func legacyEntryMetadata(db *sql.DB, entryID int64) ([]knowledge.Metadata, error) {
	exists, err := tableExists(db, "knowledge_metadata")
	if err != nil || !exists {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT key, value, type FROM knowledge_metadata WHERE entry_id = ? ORDER BY key
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("reading legacy metadata for entry %d: %w", entryID, err)
	}
	defer rows.Close()

	var meta []knowledge.Metadata
	for rows.Next() {
		var m knowledge.Metadata
		var typ sql.NullString
		if err := rows.Scan(&m.Key, &m.Value, &typ); err != nil {
			return nil, err
		}
		m.Type = typ.String
		if m.Type == "" {
			m.Type = knowledge.MetaString
		}
		meta = append(meta, m)
	}
	return meta, rows.Err()
}

func legacyTagCounts(db *sql.DB) ([]TagCount, error) {
	rows, err := db.Query(`SELECT id, name, usage_count FROM knowledge_tags ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("reading legacy tag counts: %w", err)
	}
	defer rows.Close()

	var counts []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.ID, &tc.Name, &tc.UsageCount); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

// legacyTimeLayouts are the timestamp formats legacy stores and backups may
// carry.
var legacyTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseLegacyTime parses a legacy timestamp, returning the zero time (which
// the insert path replaces with now) when it cannot be parsed.
func parseLegacyTime(s string) time.Time {
	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
