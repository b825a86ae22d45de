package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/davidwry/stash/internal/knowledge"
	"github.com/davidwry/stash/internal/storage"
)

// newTestService creates a service over a temporary store with no embedder
// and a non-git working directory.
func newTestService(t *testing.T) *Service {
	t.Helper()

	dir := t.TempDir()
	db, err := storage.OpenDB(filepath.Join(dir, "stash.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, nil, dir)
}

// stubEmbedder returns a fixed vector for every input.
type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.vec, s.err
}

func (s *stubEmbedder) ModelName() string { return "stub" }
func (s *stubEmbedder) Dimensions() int   { return len(s.vec) }

func TestAddEntryAttachesSuggestedTags(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.AddEntry(ctx, "Fix auth token bug", []string{"bug"}, nil, 0)
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	entry, err := svc.GetEntry(ctx, id)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}

	// "bug" was explicit; "security" is auto-suggested from the content.
	names := entry.TagNames()
	if len(names) != 2 || names[0] != "bug" || names[1] != "security" {
		t.Fatalf("tags = %v, want [bug security]", names)
	}

	// Only the explicit tag counts toward usage.
	bug, err := svc.Store.GetTagByName("bug")
	if err != nil {
		t.Fatalf("GetTagByName: %v", err)
	}
	if bug.UsageCount != 1 {
		t.Errorf("bug usage = %d, want 1", bug.UsageCount)
	}

	security, err := svc.Store.GetTagByName("security")
	if err != nil {
		t.Fatalf("GetTagByName: %v", err)
	}
	if security.UsageCount != 0 {
		t.Errorf("security usage = %d, want 0 (auto-suggested)", security.UsageCount)
	}
}

func TestAddEntryMetadata(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.AddEntry(ctx, "note", nil, map[string]string{"priority": "high"}, 0)
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	entry, err := svc.GetEntry(ctx, id)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if len(entry.Metadata) != 1 || entry.Metadata[0].Value != "high" {
		t.Errorf("metadata = %v, want priority=high", entry.Metadata)
	}
}

func TestAddEntryEmbeddingFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.OpenDB(filepath.Join(dir, "stash.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := New(db, &stubEmbedder{err: errors.New("provider down")}, dir)

	id, err := svc.AddEntry(context.Background(), "note", nil, nil, 0)
	if err != nil {
		t.Fatalf("AddEntry with failing embedder: %v", err)
	}

	entry, err := db.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if len(entry.Embedding) != 0 {
		t.Errorf("embedding = %v, want none", entry.Embedding)
	}
}

func TestGetEntryNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetEntry(context.Background(), 404)
	if !errors.Is(err, knowledge.ErrNotFound) {
		t.Errorf("GetEntry(404) = %v, want ErrNotFound", err)
	}
}

func TestGetEntryTagRelated(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	base, err := svc.AddEntry(ctx, "alpha note", []string{"shared"}, nil, 0)
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	other, err := svc.AddEntry(ctx, "beta note", []string{"shared"}, nil, 0)
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	entry, err := svc.GetEntry(ctx, base)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if len(entry.TagRelated) != 1 || entry.TagRelated[0].ID != other {
		t.Errorf("TagRelated = %v, want entry %d", entry.TagRelated, other)
	}
}

func TestGetEntryAttachesRelationships(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.AddEntry(ctx, "first note", nil, nil, 0)
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	b, err := svc.AddEntry(ctx, "second note", nil, nil, 0)
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	if _, err := svc.Store.CreateRelationship(knowledge.Relationship{
		FromEntryID: a,
		ToEntryID:   b,
		Type:        knowledge.RelRelatesTo,
	}); err != nil {
		t.Fatalf("CreateRelationship: %v", err)
	}

	entry, err := svc.GetEntry(ctx, a)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if len(entry.Outgoing) != 1 || entry.Outgoing[0].ToEntryID != b {
		t.Errorf("Outgoing = %v, want edge to %d", entry.Outgoing, b)
	}
	if len(entry.Incoming) != 0 {
		t.Errorf("Incoming = %v, want none", entry.Incoming)
	}

	target, err := svc.GetEntry(ctx, b)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if len(target.Incoming) != 1 || target.Incoming[0].FromEntryID != a {
		t.Errorf("Incoming = %v, want edge from %d", target.Incoming, a)
	}
}

func TestSearchSemanticPath(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.OpenDB(filepath.Join(dir, "stash.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Both entries carry embeddings; the stub query vector matches the
	// second one exactly, so semantic ranking inverts recency order.
	far, err := db.AddEntry(storage.AddEntryParams{
		Entry: knowledge.Entry{Content: "far away", Embedding: []float32{0, 1}},
	})
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	near, err := db.AddEntry(storage.AddEntryParams{
		Entry: knowledge.Entry{Content: "spot on", Embedding: []float32{1, 0}},
	})
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	svc := New(db, &stubEmbedder{vec: []float32{1, 0}}, dir)

	entries, err := svc.Search(context.Background(), "anything", storage.SearchFilters{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != near || entries[1].ID != far {
		t.Errorf("ranked order = [%d %d], want [%d %d]", entries[0].ID, entries[1].ID, near, far)
	}
}

func TestSearchDegradesOnProviderFailure(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.OpenDB(filepath.Join(dir, "stash.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.AddEntry(storage.AddEntryParams{
		Entry: knowledge.Entry{Content: "findable note"},
	}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	svc := New(db, &stubEmbedder{err: errors.New("provider down")}, dir)

	entries, err := svc.Search(context.Background(), "findable", storage.SearchFilters{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("degraded search = %d entries, want 1 via substring match", len(entries))
	}
}

func TestSearchEmptyQueryUsesFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddEntry(ctx, "tagged note", []string{"bug"}, nil, 0); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if _, err := svc.AddEntry(ctx, "plain note", nil, nil, 0); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	entries, err := svc.Search(ctx, "", storage.SearchFilters{Tags: []string{"bug"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(entries) != 1 || entries[0].Content != "tagged note" {
		t.Errorf("filtered search = %v, want the tagged note only", entries)
	}
}

func TestDeleteEntry(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.AddEntry(ctx, "doomed", nil, nil, 0)
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	deleted, err := svc.DeleteEntry(id)
	if err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if !deleted {
		t.Error("DeleteEntry = false, want true")
	}

	if _, err := svc.GetEntry(ctx, id); !errors.Is(err, knowledge.ErrNotFound) {
		t.Errorf("GetEntry after delete = %v, want ErrNotFound", err)
	}
}
