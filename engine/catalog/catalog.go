// Package catalog stores video metadata in Neo4j, keyed by video key.
// It is the document store behind the ingest pipeline and the API layer's
// video lookups.
package catalog

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/vidquest/engine/engine/domain"
)

// Video is the stored metadata for one ingested lecture video.
type Video struct {
	Key             string    `json:"key"`
	Title           string    `json:"title"`
	Path            string    `json:"path"`
	DurationSeconds float64   `json:"duration_seconds"`
	SegmentCount    int       `json:"segment_count"`
	IngestedAt      time.Time `json:"ingested_at"`
}

// result is the minimal interface needed from a neo4j result.
type result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
}

// runner is the minimal interface needed from a neo4j session.
type runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (result, error)
	Close(ctx context.Context) error
}

// Store is the Neo4j-backed video catalog.
type Store struct {
	driver     neo4j.DriverWithContext
	newSession func(ctx context.Context) runner // for testing
}

// NewStore creates a catalog Store on an existing driver.
func NewStore(driver neo4j.DriverWithContext) *Store {
	return &Store{driver: driver}
}

type sessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a *sessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (result, error) {
	return a.sess.Run(ctx, cypher, params)
}

func (a *sessionAdapter) Close(ctx context.Context) error {
	return a.sess.Close(ctx)
}

func (s *Store) session(ctx context.Context) runner {
	if s.newSession != nil {
		return s.newSession(ctx)
	}
	return &sessionAdapter{sess: s.driver.NewSession(ctx, neo4j.SessionConfig{})}
}

// Upsert creates or updates the video node for v.Key.
func (s *Store) Upsert(ctx context.Context, v Video) error {
	sess := s.session(ctx)
	defer sess.Close(ctx)

	cypher := `MERGE (v:Video {key: $key})
SET v.title = $title,
    v.path = $path,
    v.duration_seconds = $duration,
    v.segment_count = $segments,
    v.ingested_at = $ingested_at`
	_, err := sess.Run(ctx, cypher, map[string]any{
		"key":         v.Key,
		"title":       v.Title,
		"path":        v.Path,
		"duration":    v.DurationSeconds,
		"segments":    v.SegmentCount,
		"ingested_at": v.IngestedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return domain.E(domain.KindDocumentStore, "upsert video", err)
	}
	return nil
}

// FindByKey returns the video for key; the bool is false when absent.
func (s *Store) FindByKey(ctx context.Context, key string) (Video, bool, error) {
	sess := s.session(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (v:Video {key: $key}) RETURN v.key, v.title, v.path, v.duration_seconds, v.segment_count, v.ingested_at`
	res, err := sess.Run(ctx, cypher, map[string]any{"key": key})
	if err != nil {
		return Video{}, false, domain.E(domain.KindDocumentStore, "find video", err)
	}
	if !res.Next(ctx) {
		return Video{}, false, nil
	}
	return videoFromRecord(res.Record()), true, nil
}

func videoFromRecord(rec *neo4j.Record) Video {
	v := Video{}
	if len(rec.Values) < 6 {
		return v
	}
	if s, ok := rec.Values[0].(string); ok {
		v.Key = s
	}
	if s, ok := rec.Values[1].(string); ok {
		v.Title = s
	}
	if s, ok := rec.Values[2].(string); ok {
		v.Path = s
	}
	if f, ok := rec.Values[3].(float64); ok {
		v.DurationSeconds = f
	}
	if n, ok := rec.Values[4].(int64); ok {
		v.SegmentCount = int(n)
	}
	if s, ok := rec.Values[5].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			v.IngestedAt = t
		}
	}
	return v
}
