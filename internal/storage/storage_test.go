package storage

import (
	"path/filepath"
	"testing"

	"github.com/davidwry/stash/internal/knowledge"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// addTestEntry creates an entry with the given content and explicit tags.
func addTestEntry(t *testing.T, db *DB, content string, tags ...string) int64 {
	t.Helper()

	id, err := db.AddEntry(AddEntryParams{
		Entry: knowledge.Entry{Content: content},
		Tags:  tags,
	})
	if err != nil {
		t.Fatalf("AddEntry(%q): %v", content, err)
	}
	return id
}

func TestAddEntryEmptyContent(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.AddEntry(AddEntryParams{})
	if err != knowledge.ErrEmptyContent {
		t.Errorf("AddEntry with empty content = %v, want ErrEmptyContent", err)
	}
}

func TestAddAndGetEntry(t *testing.T) {
	db := setupTestDB(t)

	id, err := db.AddEntry(AddEntryParams{
		Entry: knowledge.Entry{
			Content:     "Fix login bug",
			Repo:        "myorg/api",
			Branch:      "main",
			CommitSHA:   "abc1234",
			Author:      "dev@example.com",
			ProjectType: "go",
		},
		Tags: []string{"bug", "auth"},
		Metadata: []knowledge.Metadata{
			{Key: "priority", Value: "high", Type: knowledge.MetaString},
		},
	})
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	entry, err := db.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if entry == nil {
		t.Fatal("GetEntry returned nil for existing entry")
	}

	if entry.Content != "Fix login bug" {
		t.Errorf("Content = %q, want %q", entry.Content, "Fix login bug")
	}
	if entry.Repo != "myorg/api" {
		t.Errorf("Repo = %q, want %q", entry.Repo, "myorg/api")
	}
	if entry.CommitSHA != "abc1234" {
		t.Errorf("CommitSHA = %q, want %q", entry.CommitSHA, "abc1234")
	}
	if got := entry.TagNames(); len(got) != 2 || got[0] != "bug" || got[1] != "auth" {
		t.Errorf("TagNames = %v, want [bug auth]", got)
	}
	if len(entry.Metadata) != 1 || entry.Metadata[0].Value != "high" {
		t.Errorf("Metadata = %v, want priority=high", entry.Metadata)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt should default to now, got zero")
	}
}

func TestGetEntryNotFound(t *testing.T) {
	db := setupTestDB(t)

	entry, err := db.GetEntry(999)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if entry != nil {
		t.Errorf("GetEntry(999) = %+v, want nil", entry)
	}
}

func TestExplicitTagsIncrementUsage(t *testing.T) {
	db := setupTestDB(t)

	addTestEntry(t, db, "first", "bug")
	addTestEntry(t, db, "second", "bug")

	tag, err := db.GetTagByName("bug")
	if err != nil {
		t.Fatalf("GetTagByName: %v", err)
	}
	if tag == nil {
		t.Fatal("tag bug not created")
	}
	if tag.UsageCount != 2 {
		t.Errorf("usage_count = %d, want 2", tag.UsageCount)
	}
}

func TestAutoTagsDoNotIncrementUsage(t *testing.T) {
	db := setupTestDB(t)

	id, err := db.AddEntry(AddEntryParams{
		Entry:    knowledge.Entry{Content: "Fix login bug"},
		Tags:     []string{"bug"},
		AutoTags: []string{"bug", "security"},
	})
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	entry, err := db.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	// The overlapping auto tag joins the explicit link, the new one attaches.
	if got := entry.TagNames(); len(got) != 2 {
		t.Errorf("TagNames = %v, want 2 tags", got)
	}

	bug, err := db.GetTagByName("bug")
	if err != nil {
		t.Fatalf("GetTagByName(bug): %v", err)
	}
	if bug.UsageCount != 1 {
		t.Errorf("bug usage_count = %d, want 1 (explicit only)", bug.UsageCount)
	}

	security, err := db.GetTagByName("security")
	if err != nil {
		t.Fatalf("GetTagByName(security): %v", err)
	}
	if security.UsageCount != 0 {
		t.Errorf("security usage_count = %d, want 0 (auto-suggested)", security.UsageCount)
	}
}

func TestTagNamesNormalized(t *testing.T) {
	db := setupTestDB(t)

	id, err := db.AddEntry(AddEntryParams{
		Entry: knowledge.Entry{Content: "note"},
		Tags:  []string{" bug ", "bug", "", "auth"},
	})
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	entry, err := db.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got := entry.TagNames(); len(got) != 2 {
		t.Errorf("TagNames = %v, want [bug auth]", got)
	}

	tag, err := db.GetTagByName("bug")
	if err != nil {
		t.Fatalf("GetTagByName: %v", err)
	}
	if tag.UsageCount != 1 {
		t.Errorf("duplicate tag incremented twice: usage_count = %d, want 1", tag.UsageCount)
	}
}

func TestFindOrCreateTagCaseSensitive(t *testing.T) {
	db := setupTestDB(t)

	lower, err := db.FindOrCreateTag("bug")
	if err != nil {
		t.Fatalf("FindOrCreateTag(bug): %v", err)
	}
	upper, err := db.FindOrCreateTag("Bug")
	if err != nil {
		t.Fatalf("FindOrCreateTag(Bug): %v", err)
	}
	if lower.ID == upper.ID {
		t.Error("bug and Bug should be distinct tags")
	}

	again, err := db.FindOrCreateTag("bug")
	if err != nil {
		t.Fatalf("FindOrCreateTag(bug) again: %v", err)
	}
	if again.ID != lower.ID {
		t.Errorf("FindOrCreateTag(bug) = id %d, want existing id %d", again.ID, lower.ID)
	}
}

func TestFindOrCreateTagEmptyName(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.FindOrCreateTag("")
	if err != knowledge.ErrEmptyTagName {
		t.Errorf("FindOrCreateTag(\"\") = %v, want ErrEmptyTagName", err)
	}
}

func TestDeleteEntryCascades(t *testing.T) {
	db := setupTestDB(t)

	id := addTestEntry(t, db, "doomed", "bug")
	other := addTestEntry(t, db, "survivor", "bug")

	if _, err := db.CreateRelationship(knowledge.Relationship{
		FromEntryID: id, ToEntryID: other, Type: knowledge.RelRelatesTo, Strength: 1,
	}); err != nil {
		t.Fatalf("CreateRelationship: %v", err)
	}
	if err := db.SetMetadataValue(id, "status", "open", knowledge.MetaString); err != nil {
		t.Fatalf("SetMetadataValue: %v", err)
	}

	deleted, err := db.DeleteEntry(id)
	if err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if !deleted {
		t.Fatal("DeleteEntry = false, want true")
	}

	if entry, _ := db.GetEntry(id); entry != nil {
		t.Error("entry still present after delete")
	}

	tag, err := db.GetTagByName("bug")
	if err != nil {
		t.Fatalf("GetTagByName: %v", err)
	}
	if tag.UsageCount != 1 {
		t.Errorf("usage_count = %d after delete, want 1", tag.UsageCount)
	}

	rels, err := db.RelationshipsTo(other)
	if err != nil {
		t.Fatalf("RelationshipsTo: %v", err)
	}
	if len(rels) != 0 {
		t.Errorf("relationships survived delete: %v", rels)
	}

	meta, err := db.GetMetadata(id, "status")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if meta != nil {
		t.Error("metadata survived delete")
	}
}

func TestDeleteEntryNotFound(t *testing.T) {
	db := setupTestDB(t)

	deleted, err := db.DeleteEntry(42)
	if err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if deleted {
		t.Error("DeleteEntry(42) = true for missing entry, want false")
	}
}

func TestUsageCountFloorsAtZero(t *testing.T) {
	db := setupTestDB(t)

	tag, err := db.FindOrCreateTag("rare")
	if err != nil {
		t.Fatalf("FindOrCreateTag: %v", err)
	}

	// Already at zero; decrement must not go negative.
	if err := db.DecrementTagUsage(tag.ID); err != nil {
		t.Fatalf("DecrementTagUsage: %v", err)
	}

	got, err := db.GetTagByName("rare")
	if err != nil {
		t.Fatalf("GetTagByName: %v", err)
	}
	if got.UsageCount != 0 {
		t.Errorf("usage_count = %d, want 0", got.UsageCount)
	}
}

func TestMetadataUpsert(t *testing.T) {
	db := setupTestDB(t)
	id := addTestEntry(t, db, "note")

	if err := db.SetMetadataValue(id, "status", "open", knowledge.MetaString); err != nil {
		t.Fatalf("SetMetadataValue: %v", err)
	}
	if err := db.SetMetadataValue(id, "status", "42", knowledge.MetaInteger); err != nil {
		t.Fatalf("SetMetadataValue overwrite: %v", err)
	}

	meta, err := db.GetMetadata(id, "status")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if meta == nil {
		t.Fatal("metadata missing after upsert")
	}
	if meta.Value != "42" || meta.Type != knowledge.MetaInteger {
		t.Errorf("after overwrite got %q/%q, want 42/integer", meta.Value, meta.Type)
	}
}

func TestMetadataInvalidType(t *testing.T) {
	db := setupTestDB(t)
	id := addTestEntry(t, db, "note")

	err := db.SetMetadataValue(id, "key", "value", "timestamp")
	if err == nil {
		t.Error("SetMetadataValue with unknown type should fail")
	}
}

func TestGetMetadataValueDefault(t *testing.T) {
	db := setupTestDB(t)
	id := addTestEntry(t, db, "note")

	got, err := db.GetMetadataValue(id, "missing", "fallback")
	if err != nil {
		t.Fatalf("GetMetadataValue: %v", err)
	}
	if got != "fallback" {
		t.Errorf("GetMetadataValue = %q, want fallback", got)
	}
}

func TestRelatedByTagsRanking(t *testing.T) {
	db := setupTestDB(t)

	base := addTestEntry(t, db, "base", "bug", "auth", "api")
	twoShared := addTestEntry(t, db, "two shared", "bug", "auth")
	oneShared := addTestEntry(t, db, "one shared", "api")
	addTestEntry(t, db, "unrelated", "docs")

	related, err := db.RelatedByTags(base, 10)
	if err != nil {
		t.Fatalf("RelatedByTags: %v", err)
	}
	if len(related) != 2 {
		t.Fatalf("RelatedByTags returned %d entries, want 2", len(related))
	}
	if related[0].ID != twoShared {
		t.Errorf("first related = %d, want %d (most shared tags)", related[0].ID, twoShared)
	}
	if related[1].ID != oneShared {
		t.Errorf("second related = %d, want %d", related[1].ID, oneShared)
	}
}

func TestCountEntries(t *testing.T) {
	db := setupTestDB(t)

	addTestEntry(t, db, "one")
	addTestEntry(t, db, "two")

	count, err := db.CountEntries()
	if err != nil {
		t.Fatalf("CountEntries: %v", err)
	}
	if count != 2 {
		t.Errorf("CountEntries = %d, want 2", count)
	}
}

func TestEntriesWithEmbeddings(t *testing.T) {
	db := setupTestDB(t)

	withVec, err := db.AddEntry(AddEntryParams{
		Entry: knowledge.Entry{Content: "vectored", Embedding: []float32{0.1, 0.2, 0.3}},
	})
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	addTestEntry(t, db, "plain")

	vectors, err := db.EntriesWithEmbeddings()
	if err != nil {
		t.Fatalf("EntriesWithEmbeddings: %v", err)
	}
	if len(vectors) != 1 {
		t.Fatalf("got %d vectors, want 1", len(vectors))
	}
	vec, ok := vectors[withVec]
	if !ok {
		t.Fatalf("entry %d missing from vectors", withVec)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("vector = %v, want [0.1 0.2 0.3]", vec)
	}
}
