package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/davidwry/stash/internal/knowledge"
)

// DefaultSearchLimit caps results when the caller does not supply one.
const DefaultSearchLimit = 10

// SearchFilters contains optional filters for SearchEntries. Each filter is
// independently optional; set filters combine with AND.
type SearchFilters struct {
	Repo         string   // Substring match on repo
	CollectionID int64    // Exact collection id (0 = no filter)
	Branch       string   // Exact branch match
	Author       string   // Substring match on author
	ProjectType  string   // Exact project type match
	Tags         []string // ALL must match, each by tag-name substring
	TodoOnly     bool     // Shorthand for an exact "todo" tag requirement
	Priority     string   // Exact match on the priority metadata key
	Status       string   // Exact match on the status metadata key
	RecentDays   int      // created_at >= now - N days (0 = no filter)
	CurrentRepo  string   // When set, entries from this repo sort first
	Limit        int      // Result cap (0 = DefaultSearchLimit)
}

// SearchEntries retrieves entries matching a free-text query plus filters.
// A non-empty query matches content or tag names by substring (OR). Filters
// combine with AND. Results are ordered by relevance to CurrentRepo when
// set, then creation time descending. An empty query with no filters
// returns the most recent entries.
func (d *DB) SearchEntries(query string, filters SearchFilters) ([]knowledge.Entry, error) {
	where, args := buildSearchClauses(query, filters)
	return d.runSearch(where, args, filters)
}

// SearchEntriesByIDs applies the filter set as a post-filter over a ranked
// id list (the semantic search path). The ranked order is preserved.
func (d *DB) SearchEntriesByIDs(ids []int64, filters SearchFilters) ([]knowledge.Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	idArgs := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		idArgs[i] = id
	}

	where, args := buildSearchClauses("", filters)
	where = append(where, fmt.Sprintf("id IN (%s)", strings.Join(placeholders, ", ")))
	args = append(args, idArgs...)

	entries, err := d.runSearch(where, args, SearchFilters{
		CurrentRepo: filters.CurrentRepo,
		Limit:       len(ids), // rank order re-applied below, then capped
	})
	if err != nil {
		return nil, err
	}

	// Restore the provider's ranking.
	byID := make(map[int64]knowledge.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	var ranked []knowledge.Entry
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			ranked = append(ranked, e)
		}
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// buildSearchClauses folds the query and filter set into WHERE clauses.
func buildSearchClauses(query string, filters SearchFilters) (where []string, args []any) {
	if query != "" {
		where = append(where, `(content LIKE ? OR EXISTS (
			SELECT 1 FROM entry_tags et JOIN tags t ON t.id = et.tag_id
			WHERE et.entry_id = entries.id AND t.name LIKE ?))`)
		pattern := "%" + query + "%"
		args = append(args, pattern, pattern)
	}

	if filters.Repo != "" {
		where = append(where, `repo LIKE ?`)
		args = append(args, "%"+filters.Repo+"%")
	}
	if filters.CollectionID != 0 {
		where = append(where, `collection_id = ?`)
		args = append(args, filters.CollectionID)
	}
	if filters.Branch != "" {
		where = append(where, `branch = ?`)
		args = append(args, filters.Branch)
	}
	if filters.Author != "" {
		where = append(where, `author LIKE ?`)
		args = append(args, "%"+filters.Author+"%")
	}
	if filters.ProjectType != "" {
		where = append(where, `project_type = ?`)
		args = append(args, filters.ProjectType)
	}

	for _, tag := range filters.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		where = append(where, `EXISTS (
			SELECT 1 FROM entry_tags et JOIN tags t ON t.id = et.tag_id
			WHERE et.entry_id = entries.id AND t.name LIKE ?)`)
		args = append(args, "%"+tag+"%")
	}

	if filters.TodoOnly {
		where = append(where, `EXISTS (
			SELECT 1 FROM entry_tags et JOIN tags t ON t.id = et.tag_id
			WHERE et.entry_id = entries.id AND t.name = 'todo')`)
	}

	if filters.Priority != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM entry_metadata m
			WHERE m.entry_id = entries.id AND m.key = 'priority' AND m.value = ?)`)
		args = append(args, filters.Priority)
	}
	if filters.Status != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM entry_metadata m
			WHERE m.entry_id = entries.id AND m.key = 'status' AND m.value = ?)`)
		args = append(args, filters.Status)
	}

	if filters.RecentDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -filters.RecentDays)
		where = append(where, `created_at >= ?`)
		args = append(args, cutoff.Format(timeLayout))
	}

	return where, args
}

// runSearch executes the assembled query with relevance ordering and limit,
// then loads each result's tags, metadata, and collection.
func (d *DB) runSearch(where []string, args []any, filters SearchFilters) ([]knowledge.Entry, error) {
	query := `SELECT ` + selectEntryFields + ` FROM entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	if filters.CurrentRepo != "" {
		query += ` ORDER BY CASE WHEN repo = ? THEN 0 ELSE 1 END, created_at DESC, id DESC`
		args = append(args, filters.CurrentRepo)
	} else {
		query += ` ORDER BY created_at DESC, id DESC`
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if err := d.loadDetails(&entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}
