package storage

import (
	"testing"

	"github.com/davidwry/stash/internal/knowledge"
)

func TestExportDocument(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.AddEntry(AddEntryParams{
		Entry: knowledge.Entry{
			Content: "exported note",
			Repo:    "myorg/api",
			Branch:  "main",
		},
		Tags: []string{"bug"},
		Metadata: []knowledge.Metadata{
			{Key: "priority", Value: "high", Type: knowledge.MetaString},
		},
	}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	data, err := db.Export(SearchFilters{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if data.Version != ExportVersion {
		t.Errorf("Version = %q, want %q", data.Version, ExportVersion)
	}
	if data.ExportedAt.IsZero() {
		t.Error("ExportedAt not set")
	}
	if data.TotalEntries != 1 || len(data.Entries) != 1 {
		t.Fatalf("TotalEntries = %d with %d entries, want 1", data.TotalEntries, len(data.Entries))
	}

	e := data.Entries[0]
	if e.Content != "exported note" {
		t.Errorf("Content = %q", e.Content)
	}
	if len(e.Tags) != 1 || e.Tags[0] != "bug" {
		t.Errorf("Tags = %v, want [bug]", e.Tags)
	}
	if e.Metadata["priority"] != "high" {
		t.Errorf("Metadata = %v, want priority=high", e.Metadata)
	}
	if e.GitContext.Repo != "myorg/api" || e.GitContext.Branch != "main" {
		t.Errorf("GitContext = %+v", e.GitContext)
	}
}

func TestExportRespectsFilters(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.AddEntry(AddEntryParams{
		Entry: knowledge.Entry{Content: "in repo", Repo: "myorg/api"},
	}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if _, err := db.AddEntry(AddEntryParams{
		Entry: knowledge.Entry{Content: "elsewhere", Repo: "other/project"},
	}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	data, err := db.Export(SearchFilters{Repo: "myorg"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if data.TotalEntries != 1 || data.Entries[0].Content != "in repo" {
		t.Errorf("filtered export = %+v, want the myorg entry only", data.Entries)
	}
}

func TestExportTagsNeverNull(t *testing.T) {
	db := setupTestDB(t)

	addTestEntry(t, db, "untagged")

	data, err := db.Export(SearchFilters{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if data.Entries[0].Tags == nil {
		t.Error("Tags should be an empty slice, not nil")
	}
}
