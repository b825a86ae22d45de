// Package semantic provides the heuristic search collaborators: cosine
// ranking over stored embeddings, keyword tag suggestion, and content
// similarity. Everything here is best-effort with no accuracy contract;
// callers degrade to substring search when it is unavailable.
package semantic

import (
	"context"
	"math"
	"sort"

	"github.com/davidwry/stash/internal/embedding"
)

// Provider is the pluggable semantic capability consumed by the service
// layer.
type Provider interface {
	// Enabled reports whether semantic query resolution is available.
	Enabled() bool

	// Search resolves a query to a ranked entry id list.
	Search(ctx context.Context, query string, limit int) ([]int64, error)

	// SuggestTags proposes tag names for content. Heuristic; suggested
	// tags attach without incrementing usage.
	SuggestTags(content string) []string
}

// VectorSource supplies the stored embeddings the searcher ranks against.
type VectorSource interface {
	EntriesWithEmbeddings() (map[int64][]float32, error)
}

// Searcher ranks entries by cosine similarity between a query embedding
// and stored entry embeddings. With no embedder configured it is disabled
// but still suggests tags.
type Searcher struct {
	embedder embedding.Provider
	vectors  VectorSource
}

// NewSearcher creates a searcher. embedder may be nil, which disables the
// semantic query path.
func NewSearcher(embedder embedding.Provider, vectors VectorSource) *Searcher {
	return &Searcher{embedder: embedder, vectors: vectors}
}

// Enabled reports whether semantic query resolution is available.
func (s *Searcher) Enabled() bool {
	return s.embedder != nil && s.vectors != nil
}

// scored pairs an entry id with its similarity to the query.
type scored struct {
	id  int64
	sim float32
}

// Search embeds the query and returns entry ids ranked by cosine
// similarity descending.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]int64, error) {
	if !s.Enabled() {
		return nil, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	vectors, err := s.vectors.EntriesWithEmbeddings()
	if err != nil {
		return nil, err
	}

	results := make([]scored, 0, len(vectors))
	for id, vec := range vectors {
		results = append(results, scored{id: id, sim: CosineSimilarity(queryVec, vec)})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].sim != results[j].sim {
			return results[i].sim > results[j].sim
		}
		return results[i].id < results[j].id
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.id
	}
	return ids, nil
}

// SuggestTags proposes tags by keyword matching.
func (s *Searcher) SuggestTags(content string) []string {
	return SuggestTags(content)
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denominator := float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB)))
	if denominator == 0 {
		return 0
	}

	return dot / denominator
}
