// Package rag orchestrates the retrieval-augmented generation pipeline:
// validate the query, search for relevant transcript segments, assemble
// context, synthesize an answer, and resolve a supporting video clip.
package rag

import (
	"context"
	"log/slog"
	"time"

	"github.com/vidquest/engine/engine/content"
	"github.com/vidquest/engine/engine/domain"
	"github.com/vidquest/engine/engine/semantic"
)

// NoResultsSummary is the summary for a query where nothing scored high
// enough. It is a successful outcome, distinct from an error.
const NoResultsSummary = "No relevant content found for your query."

// Searcher abstracts the semantic search service.
type Searcher interface {
	Search(ctx context.Context, query string, limit int, minScore float32) ([]semantic.SearchResult, error)
}

// Generator abstracts the response generation service.
type Generator interface {
	Generate(ctx context.Context, query, contextText, additional string) (string, error)
}

// ClipResolver abstracts on-demand clip materialization.
type ClipResolver interface {
	Resolve(ctx context.Context, videoKey, start, end string) (string, bool)
}

// QueryOptions are the caller-supplied knobs for one query.
type QueryOptions struct {
	MaxResults  int
	MinScore    float32
	IncludeClip bool
	// Additional is extra caller context appended to the prompt.
	Additional string
}

// DefaultQueryOptions returns the standard per-query defaults.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		MaxResults:  5,
		MinScore:    0.3,
		IncludeClip: true,
	}
}

// Response is the assembled outcome of one query. It is constructed once
// and not mutated after return.
type Response struct {
	Query          string                  `json:"query"`
	Results        []semantic.SearchResult `json:"search_results"`
	Summary        string                  `json:"summary"`
	ClipPath       string                  `json:"video_clip_path,omitempty"`
	ProcessingTime float64                 `json:"processing_time"`
	Metadata       map[string]any          `json:"metadata"`
}

// Service sequences the pipeline for one query at a time; many queries may
// be in flight concurrently, each suspended at its external calls.
type Service struct {
	search Searcher
	gen    Generator
	clips  ClipResolver
	logger *slog.Logger
}

// New creates the orchestrator. clips may be nil when clip materialization
// is not configured; IncludeClip then degrades to no clip.
func New(search Searcher, gen Generator, clips ClipResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{search: search, gen: gen, clips: clips, logger: logger}
}

// ProcessQuery runs the full pipeline. A failed query returns a typed error
// and no Response; the no-results case is a successful Response with the
// explicit empty-result summary.
func (s *Service) ProcessQuery(ctx context.Context, query string, opts QueryOptions) (*Response, error) {
	start := time.Now()

	// Hard precondition: no embedding call is ever made for an empty query.
	if err := domain.ValidateQuery(query); err != nil {
		return nil, err
	}

	results, err := s.search.Search(ctx, query, opts.MaxResults, opts.MinScore)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		// Deliberate cost-saving branch: generation and clip resolution are
		// both skipped entirely.
		s.logger.Info("no results above threshold", "min_score", opts.MinScore)
		return &Response{
			Query:          query,
			Results:        []semantic.SearchResult{},
			Summary:        NoResultsSummary,
			ProcessingTime: time.Since(start).Seconds(),
			Metadata: map[string]any{
				"no_results":   true,
				"result_count": 0,
			},
		}, nil
	}

	contextText := content.BuildContext(results)

	summary, err := s.gen.Generate(ctx, query, contextText, opts.Additional)
	if err != nil {
		return nil, err
	}

	// Clip for the top-ranked result only; at equal top scores the first
	// occurrence in the sorted sequence wins. Absence degrades to no clip.
	var clipPath string
	if opts.IncludeClip && s.clips != nil {
		top := results[0]
		if p, ok := s.clips.Resolve(ctx, top.VideoKey, top.Start, top.End); ok {
			clipPath = p
		}
	}

	return &Response{
		Query:          query,
		Results:        results,
		Summary:        summary,
		ClipPath:       clipPath,
		ProcessingTime: time.Since(start).Seconds(),
		Metadata: map[string]any{
			"result_count": len(results),
			"top_score":    results[0].Score,
		},
	}, nil
}
