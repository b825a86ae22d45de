package storage

import (
	"time"
)

// ExportVersion tags the export document format.
const ExportVersion = "2.0"

// exportLimit caps how many entries a single export includes.
const exportLimit = 1000

// ExportData is the version-tagged export document consumed by external
// callers and re-importable through the reconciler.
type ExportData struct {
	Version      string        `json:"version"`
	ExportedAt   time.Time     `json:"exported_at"`
	TotalEntries int           `json:"total_entries"`
	Entries      []ExportEntry `json:"entries"`
}

// ExportEntry is one entry in the export document.
type ExportEntry struct {
	ID         int64             `json:"id"`
	Content    string            `json:"content"`
	Tags       []string          `json:"tags"`
	Metadata   map[string]string `json:"metadata"`
	GitContext ExportGitContext  `json:"git_context"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ExportGitContext is the provenance block of an exported entry.
type ExportGitContext struct {
	Repo        string `json:"repo"`
	Branch      string `json:"branch"`
	CommitSHA   string `json:"commit_sha"`
	Author      string `json:"author"`
	ProjectType string `json:"project_type"`
}

// Export snapshots entries matching the filter set into the version-tagged
// export document.
func (d *DB) Export(filters SearchFilters) (*ExportData, error) {
	filters.Limit = exportLimit
	entries, err := d.SearchEntries("", filters)
	if err != nil {
		return nil, err
	}

	out := &ExportData{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Entries:    make([]ExportEntry, 0, len(entries)),
	}

	for _, e := range entries {
		meta := make(map[string]string, len(e.Metadata))
		for _, m := range e.Metadata {
			meta[m.Key] = m.Value
		}

		tags := e.TagNames()
		if tags == nil {
			tags = []string{}
		}

		out.Entries = append(out.Entries, ExportEntry{
			ID:       e.ID,
			Content:  e.Content,
			Tags:     tags,
			Metadata: meta,
			GitContext: ExportGitContext{
				Repo:        e.Repo,
				Branch:      e.Branch,
				CommitSHA:   e.CommitSHA,
				Author:      e.Author,
				ProjectType: e.ProjectType,
			},
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		})
	}

	out.TotalEntries = len(out.Entries)
	return out, nil
}
