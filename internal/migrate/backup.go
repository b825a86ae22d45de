package migrate

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/davidwry/stash/internal/knowledge"
)

// BackupFile is the structured snapshot format. A valid file needs at least
// the entries key; everything else is optional. The same decoder accepts
// the store's own export documents, whose entries carry nested tags and
// metadata instead of join rows.
type BackupFile struct {
	BackupCreatedAt string        `json:"backup_created_at,omitempty"`
	Entries         []BackupEntry `json:"entries"`
	Tags            []TagCount    `json:"tags,omitempty"`
	EntryTags       []BackupLink  `json:"entry_tags,omitempty"`
	Metadata        []BackupMeta  `json:"metadata,omitempty"`
}

// BackupEntry is one entry row in a backup or export file.
type BackupEntry struct {
	ID          int64  `json:"id"`
	Content     string `json:"content"`
	Repo        string `json:"repo,omitempty"`
	Branch      string `json:"branch,omitempty"`
	CommitSHA   string `json:"commit_sha,omitempty"`
	Author      string `json:"author,omitempty"`
	ProjectType string `json:"project_type,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`

	// Export-format extras: nested associations and provenance block.
	Tags       []string          `json:"tags,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	GitContext *BackupGitContext `json:"git_context,omitempty"`
}

// BackupGitContext is the nested provenance block of export-format entries.
type BackupGitContext struct {
	Repo        string `json:"repo,omitempty"`
	Branch      string `json:"branch,omitempty"`
	CommitSHA   string `json:"commit_sha,omitempty"`
	Author      string `json:"author,omitempty"`
	ProjectType string `json:"project_type,omitempty"`
}

// BackupLink is one entry-tag join row.
type BackupLink struct {
	EntryID int64 `json:"entry_id"`
	TagID   int64 `json:"tag_id"`
}

// BackupMeta is one metadata row.
type BackupMeta struct {
	EntryID int64  `json:"entry_id"`
	Key     string `json:"key"`
	Value   string `json:"value"`
	Type    string `json:"type,omitempty"`
}

// ImportFromBackup merges a backup file into the knowledge store. A missing
// file, unparseable JSON, or a file without an entries key is an error
// outcome before any storage is touched.
func (s *Service) ImportFromBackup(path string) *Outcome {
	out := &Outcome{Errors: []string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		out.Status = StatusError
		out.Errors = append(out.Errors, fmt.Sprintf("reading backup file: %v", err))
		return out
	}

	backup, err := parseBackup(data)
	if err != nil {
		out.Status = StatusError
		out.Errors = append(out.Errors, err.Error())
		return out
	}

	src := materializeBackup(backup)

	if err := s.merge(src, "Imported from backup",
		"Knowledge entries imported from backup file", out); err != nil {
		*out = Outcome{
			Status: StatusError,
			Errors: append(out.Errors, err.Error()),
		}
		return out
	}

	out.finalize()
	return out
}

// parseBackup decodes and validates a backup document.
func parseBackup(data []byte) (*BackupFile, error) {
	// Distinguish "entries key absent" from "entries present but empty".
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("invalid backup file format: %w", err)
	}
	if _, ok := probe["entries"]; !ok {
		return nil, fmt.Errorf("invalid backup file format: missing entries")
	}

	var backup BackupFile
	if err := json.Unmarshal(data, &backup); err != nil {
		return nil, fmt.Errorf("invalid backup file format: %w", err)
	}
	return &backup, nil
}

// materializeBackup flattens a backup document into the merge's record
// shape, resolving join rows through the backup's tag table and folding in
// export-format nested tags and metadata.
func materializeBackup(backup *BackupFile) source {
	tagNameByID := make(map[int64]string, len(backup.Tags))
	for i, tc := range backup.Tags {
		id := tc.ID
		if id == 0 {
			// Tag tables serialize in id order starting at 1 when ids are
			// omitted.
			id = int64(i + 1)
		}
		tagNameByID[id] = tc.Name
	}

	tagsByEntry := make(map[int64][]string)
	for _, link := range backup.EntryTags {
		if name, ok := tagNameByID[link.TagID]; ok {
			tagsByEntry[link.EntryID] = append(tagsByEntry[link.EntryID], name)
		}
	}

	metaByEntry := make(map[int64][]knowledge.Metadata)
	for _, m := range backup.Metadata {
		typ := m.Type
		if typ == "" {
			typ = knowledge.MetaString
		}
		metaByEntry[m.EntryID] = append(metaByEntry[m.EntryID], knowledge.Metadata{
			Key:   m.Key,
			Value: m.Value,
			Type:  typ,
		})
	}

	var src source
	for _, be := range backup.Entries {
		rec := record{
			Entry: knowledge.Entry{
				ID:          be.ID,
				Content:     be.Content,
				Repo:        be.Repo,
				Branch:      be.Branch,
				CommitSHA:   be.CommitSHA,
				Author:      be.Author,
				ProjectType: be.ProjectType,
				CreatedAt:   parseLegacyTime(be.CreatedAt),
				UpdatedAt:   parseLegacyTime(be.UpdatedAt),
			},
		}

		if be.GitContext != nil {
			rec.Entry.Repo = be.GitContext.Repo
			rec.Entry.Branch = be.GitContext.Branch
			rec.Entry.CommitSHA = be.GitContext.CommitSHA
			rec.Entry.Author = be.GitContext.Author
			rec.Entry.ProjectType = be.GitContext.ProjectType
		}

		rec.Tags = append(rec.Tags, be.Tags...)
		rec.Tags = append(rec.Tags, tagsByEntry[be.ID]...)

		for k, v := range be.Metadata {
			rec.Metadata = append(rec.Metadata, knowledge.Metadata{
				Key: k, Value: v, Type: knowledge.MetaString,
			})
		}
		rec.Metadata = append(rec.Metadata, metaByEntry[be.ID]...)

		src.Records = append(src.Records, rec)
	}

	src.Tags = backup.Tags
	return src
}

// BackupLegacyData snapshots every legacy table into one JSON file. Returns
// false on any failure (missing tables, I/O) rather than an error; backup
// is a best-effort convenience before destructive cleanup.
func (s *Service) BackupLegacyData(legacyPath, outPath string) bool {
	legacy, err := sql.Open("sqlite", legacyPath)
	if err != nil {
		return false
	}
	defer legacy.Close()

	ok, err := legacyTablesExist(legacy)
	if err != nil || !ok {
		return false
	}

	backup := BackupFile{
		BackupCreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	src, err := readLegacySource(legacy)
	if err != nil {
		return false
	}

	for _, rec := range src.Records {
		be := BackupEntry{
			ID:          rec.Entry.ID,
			Content:     rec.Entry.Content,
			Repo:        rec.Entry.Repo,
			Branch:      rec.Entry.Branch,
			CommitSHA:   rec.Entry.CommitSHA,
			Author:      rec.Entry.Author,
			ProjectType: rec.Entry.ProjectType,
			Tags:        rec.Tags,
		}
		if !rec.Entry.CreatedAt.IsZero() {
			be.CreatedAt = rec.Entry.CreatedAt.UTC().Format(time.RFC3339)
		}
		if !rec.Entry.UpdatedAt.IsZero() {
			be.UpdatedAt = rec.Entry.UpdatedAt.UTC().Format(time.RFC3339)
		}
		backup.Entries = append(backup.Entries, be)

		for _, m := range rec.Metadata {
			backup.Metadata = append(backup.Metadata, BackupMeta{
				EntryID: rec.Entry.ID,
				Key:     m.Key,
				Value:   m.Value,
				Type:    m.Type,
			})
		}
	}
	backup.Tags = src.Tags

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return false
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return false
	}
	return true
}
