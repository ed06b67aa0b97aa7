// Package search implements the semantic search service: it embeds the
// query, runs k-NN search against the vector index, filters by score, and
// caches both embeddings and final result sequences.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vidquest/engine/engine/domain"
	"github.com/vidquest/engine/engine/semantic"
	"github.com/vidquest/engine/pkg/ollama"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (ollama.EmbedResult, error)
}

// VectorSearcher runs k-NN search over stored embeddings.
type VectorSearcher interface {
	Search(ctx context.Context, embedding []float32, limit int) ([]semantic.SearchResult, error)
}

// Options configures the search service.
type Options struct {
	// ResultCacheSize bounds the (query, limit, minScore) → results cache.
	ResultCacheSize int
	// EmbedCacheSize bounds the text → vector cache.
	EmbedCacheSize int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		ResultCacheSize: 256,
		EmbedCacheSize:  1024,
	}
}

// Service orchestrates embedding, vector search, filtering, and caching.
type Service struct {
	embedder Embedder
	index    VectorSearcher
	results  *boundedCache[[]semantic.SearchResult]
	vectors  *boundedCache[[]float32]
	logger   *slog.Logger
}

// New creates a search Service.
func New(embedder Embedder, index VectorSearcher, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		embedder: embedder,
		index:    index,
		results:  newBoundedCache[[]semantic.SearchResult](opts.ResultCacheSize),
		vectors:  newBoundedCache[[]float32](opts.EmbedCacheSize),
		logger:   logger,
	}
}

// Search returns at most limit results with score >= minScore, ranked by
// descending score. A cache hit short-circuits everything downstream; an
// embedding or index failure is fatal to the call and never collapses into
// an empty-result return.
func (s *Service) Search(ctx context.Context, query string, limit int, minScore float32) ([]semantic.SearchResult, error) {
	if err := domain.ValidateQuery(query); err != nil {
		return nil, err
	}
	if err := domain.ValidateSearchParams(limit, minScore); err != nil {
		return nil, err
	}

	key := cacheKey(query, limit, minScore)
	if cached, ok := s.results.get(key); ok {
		s.logger.Debug("search cache hit", "query_len", len(query))
		return cached, nil
	}

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, domain.E(domain.KindEmbedding, "embed query", err)
	}

	// Over-fetch to compensate for candidates lost to score filtering.
	hits, err := s.index.Search(ctx, vector, 2*limit)
	if err != nil {
		return nil, domain.E(domain.KindVectorIndex, "vector search", err)
	}

	kept := make([]semantic.SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.Score >= minScore {
			kept = append(kept, h)
		}
	}

	// Stable: equal scores keep the index-reported order.
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	if len(kept) > limit {
		kept = kept[:limit]
	}

	s.results.put(key, kept)
	s.logger.Info("search done", "hits", len(hits), "kept", len(kept))
	return kept, nil
}

// embedQuery returns the query vector, consulting the embedding cache first.
func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if v, ok := s.vectors.get(query); ok {
		return v, nil
	}
	res, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	s.vectors.put(query, res.Vector)
	return res.Vector, nil
}

func cacheKey(query string, limit int, minScore float32) string {
	return fmt.Sprintf("%s|%d|%.4f", query, limit, minScore)
}
