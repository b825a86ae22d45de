// Package service orchestrates the knowledge store with its best-effort
// collaborators: git provenance, embeddings, and semantic search. The
// collaborators may be absent or failing; entry operations never fail
// because of them.
package service

import (
	"context"

	"github.com/davidwry/stash/internal/embedding"
	"github.com/davidwry/stash/internal/gitctx"
	"github.com/davidwry/stash/internal/knowledge"
	"github.com/davidwry/stash/internal/semantic"
	"github.com/davidwry/stash/internal/storage"
)

const (
	tagRelatedLimit = 3
	similarLimit    = 5
)

// Service is the entry-facing API over the store and its collaborators.
type Service struct {
	Store    *storage.DB
	Semantic semantic.Provider
	Embedder embedding.Provider // may be nil
	WorkDir  string             // directory whose git context stamps new entries
}

// New creates a service with the default semantic searcher over the store's
// embeddings. embedder may be nil, which disables the semantic query path
// but keeps tag suggestion.
func New(store *storage.DB, embedder embedding.Provider, workDir string) *Service {
	return &Service{
		Store:    store,
		Semantic: semantic.NewSearcher(embedder, store),
		Embedder: embedder,
		WorkDir:  workDir,
	}
}

// AddEntry creates an entry stamped with the current git context. Supplied
// tags attach explicitly and count toward usage; auto-suggested tags attach
// without counting. Embedding generation is best-effort: a failing or
// absent provider leaves the entry without an embedding.
func (s *Service) AddEntry(ctx context.Context, content string, tags []string, metadata map[string]string, collectionID int64) (int64, error) {
	gc := gitctx.Current(s.WorkDir)

	entry := knowledge.Entry{
		Content:      content,
		Repo:         gc.Repo,
		Branch:       gc.Branch,
		CommitSHA:    gc.CommitSHA,
		Author:       gc.Author,
		ProjectType:  gc.ProjectType,
		CollectionID: collectionID,
	}

	if s.Embedder != nil {
		if vec, err := s.Embedder.Embed(ctx, content); err == nil {
			entry.Embedding = vec
		}
	}

	meta := make([]knowledge.Metadata, 0, len(metadata))
	for k, v := range metadata {
		meta = append(meta, knowledge.Metadata{Key: k, Value: v, Type: knowledge.MetaString})
	}

	return s.Store.AddEntry(storage.AddEntryParams{
		Entry:    entry,
		Tags:     tags,
		AutoTags: s.Semantic.SuggestTags(content),
		Metadata: meta,
	})
}

// GetEntry resolves an entry with its associations plus two derived
// read-only relation sets: entries sharing tags (ranked by shared-tag
// count) and semantically similar entries. Returns
// knowledge.ErrNotFound if the id does not exist.
func (s *Service) GetEntry(ctx context.Context, id int64) (*knowledge.Entry, error) {
	entry, err := s.Store.GetEntry(id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, knowledge.ErrNotFound
	}

	related, err := s.Store.RelatedByTags(id, tagRelatedLimit)
	if err != nil {
		return nil, err
	}
	entry.TagRelated = related

	if out, err := s.Store.RelationshipsFrom(id); err == nil {
		entry.Outgoing = out
	}
	if in, err := s.Store.RelationshipsTo(id); err == nil {
		entry.Incoming = in
	}

	// Similarity is best-effort; a failing provider leaves the set empty.
	if s.Semantic.Enabled() {
		if ids, err := s.Semantic.Search(ctx, entry.Content, similarLimit+1); err == nil {
			for _, similarID := range ids {
				if similarID == id || len(entry.SemanticallySimilar) >= similarLimit {
					continue
				}
				if e, err := s.Store.GetEntry(similarID); err == nil && e != nil {
					entry.SemanticallySimilar = append(entry.SemanticallySimilar, *e)
				}
			}
		}
	}

	return entry, nil
}

// Search retrieves entries matching a free-text query and filter set. When
// the semantic provider is enabled and a query is present, the query
// resolves through it to a ranked id list and the filters apply as a
// post-filter; otherwise the query degrades to substring matching.
func (s *Service) Search(ctx context.Context, query string, filters storage.SearchFilters) ([]knowledge.Entry, error) {
	if query != "" && s.Semantic.Enabled() {
		limit := filters.Limit
		if limit <= 0 {
			limit = storage.DefaultSearchLimit
		}
		ids, err := s.Semantic.Search(ctx, query, limit)
		if err == nil {
			return s.Store.SearchEntriesByIDs(ids, filters)
		}
		// Provider failure degrades to substring search.
	}
	return s.Store.SearchEntries(query, filters)
}

// DeleteEntry removes an entry with all its cascades. Returns false if the
// entry does not exist.
func (s *Service) DeleteEntry(id int64) (bool, error) {
	return s.Store.DeleteEntry(id)
}

// Export snapshots entries matching the filter set into the version-tagged
// export document.
func (s *Service) Export(filters storage.SearchFilters) (*storage.ExportData, error) {
	return s.Store.Export(filters)
}

// CurrentRepo returns the repo slug of the service's working directory, or
// empty outside a git repository. Used for relevance ordering.
func (s *Service) CurrentRepo() string {
	return gitctx.Current(s.WorkDir).Repo
}
