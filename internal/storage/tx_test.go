package storage

import (
	"testing"
	"time"

	"github.com/davidwry/stash/internal/knowledge"
)

func TestTxRollbackDiscardsEverything(t *testing.T) {
	db := setupTestDB(t)

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := tx.CreateCollection(knowledge.Collection{Name: "Staged"}); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if _, err := tx.CreateEntry(knowledge.Entry{Content: "staged"}, []string{"bug"}, nil); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	count, err := db.CountEntries()
	if err != nil {
		t.Fatalf("CountEntries: %v", err)
	}
	if count != 0 {
		t.Errorf("entries after rollback = %d, want 0", count)
	}

	collections, err := db.CountCollections()
	if err != nil {
		t.Fatalf("CountCollections: %v", err)
	}
	if collections != 0 {
		t.Errorf("collections after rollback = %d, want 0", collections)
	}

	tag, err := db.GetTagByName("bug")
	if err != nil {
		t.Fatalf("GetTagByName: %v", err)
	}
	if tag != nil {
		t.Error("tag survived rollback")
	}
}

func TestTxCreateEntryPreservesTimestamps(t *testing.T) {
	db := setupTestDB(t)

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	id, err := tx.CreateEntry(knowledge.Entry{
		Content:   "historical",
		CreatedAt: created,
		UpdatedAt: created,
	}, nil, nil)
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	entry, err := db.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if !entry.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", entry.CreatedAt, created)
	}
}

func TestTxCreateEntryIncrementsTagUsage(t *testing.T) {
	db := setupTestDB(t)

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := tx.CreateEntry(knowledge.Entry{Content: "a"}, []string{"replayed"}, nil); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if _, err := tx.CreateEntry(knowledge.Entry{Content: "b"}, []string{"replayed"}, nil); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	tag, err := db.GetTagByName("replayed")
	if err != nil {
		t.Fatalf("GetTagByName: %v", err)
	}
	if tag.UsageCount != 2 {
		t.Errorf("usage_count = %d, want 2", tag.UsageCount)
	}
}

func TestTxSetTagUsageByName(t *testing.T) {
	db := setupTestDB(t)

	addTestEntry(t, db, "note", "known")

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	ok, err := tx.SetTagUsageByName("known", 42)
	if err != nil {
		t.Fatalf("SetTagUsageByName: %v", err)
	}
	if !ok {
		t.Error("SetTagUsageByName(known) = false, want true")
	}

	ok, err = tx.SetTagUsageByName("missing", 7)
	if err != nil {
		t.Fatalf("SetTagUsageByName(missing): %v", err)
	}
	if ok {
		t.Error("SetTagUsageByName(missing) = true, want false")
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	tag, err := db.GetTagByName("known")
	if err != nil {
		t.Fatalf("GetTagByName: %v", err)
	}
	if tag.UsageCount != 42 {
		t.Errorf("usage_count = %d, want 42", tag.UsageCount)
	}

	if missing, _ := db.GetTagByName("missing"); missing != nil {
		t.Error("SetTagUsageByName must not create missing tags")
	}
}
