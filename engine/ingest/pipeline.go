package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vidquest/engine/engine/catalog"
	"github.com/vidquest/engine/engine/domain"
	"github.com/vidquest/engine/engine/semantic"
	"github.com/vidquest/engine/pkg/fn"
)

const (
	// EmbedBatchSize is the max segments per embedding request.
	EmbedBatchSize = 64
	// MaxRetries before a job goes to the DLQ.
	MaxRetries = 3
)

// Job is one subtitle file to ingest.
type Job struct {
	VideoKey     string `json:"video_key"`
	SubtitlePath string `json:"subtitle_path"`
	VideoPath    string `json:"video_path,omitempty"`
	Title        string `json:"title,omitempty"`
}

// ParsedJob is a job with its parsed segments.
type ParsedJob struct {
	Job
	Segments []Segment
}

// EmbeddedJob carries one embedding per segment.
type EmbeddedJob struct {
	ParsedJob
	Embeddings [][]float32
}

// BatchEmbedder embeds a batch of texts in order.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorUpserter stores embedded segments.
type VectorUpserter interface {
	Upsert(ctx context.Context, records []semantic.VectorRecord) error
	DeleteByVideoKey(ctx context.Context, videoKey string) error
}

// CatalogUpserter records video metadata.
type CatalogUpserter interface {
	Upsert(ctx context.Context, v catalog.Video) error
}

// Parse reads and parses the job's subtitle file.
var Parse fn.Stage[Job, ParsedJob] = func(_ context.Context, job Job) fn.Result[ParsedJob] {
	segments, err := ParseSubtitleFile(job.SubtitlePath)
	if err != nil {
		return fn.Err[ParsedJob](err)
	}
	if len(segments) == 0 {
		return fn.Errf[ParsedJob]("ingest: no segments in %s", job.SubtitlePath)
	}
	return fn.Ok(ParsedJob{Job: job, Segments: segments})
}

// NewEmbed creates the Embed stage, batching segment texts.
func NewEmbed(embedder BatchEmbedder) fn.Stage[ParsedJob, EmbeddedJob] {
	return func(ctx context.Context, job ParsedJob) fn.Result[EmbeddedJob] {
		embeddings := make([][]float32, len(job.Segments))

		for i := 0; i < len(job.Segments); i += EmbedBatchSize {
			end := i + EmbedBatchSize
			if end > len(job.Segments) {
				end = len(job.Segments)
			}
			texts := make([]string, end-i)
			for j, s := range job.Segments[i:end] {
				texts[j] = s.Text
			}
			vectors, err := embedder.EmbedBatch(ctx, texts)
			if err != nil {
				return fn.Err[EmbeddedJob](fmt.Errorf("embed segments [%d:%d]: %w", i, end, err))
			}
			copy(embeddings[i:], vectors)
		}
		return fn.Ok(EmbeddedJob{ParsedJob: job, Embeddings: embeddings})
	}
}

// NewStore creates the Store stage: replace the video's points in the
// vector index and record its metadata in the catalog.
func NewStore(vectors VectorUpserter, videos CatalogUpserter) fn.Stage[EmbeddedJob, string] {
	return func(ctx context.Context, job EmbeddedJob) fn.Result[string] {
		if err := vectors.DeleteByVideoKey(ctx, job.VideoKey); err != nil {
			return fn.Err[string](fmt.Errorf("clear previous points: %w", err))
		}

		records := make([]semantic.VectorRecord, len(job.Segments))
		for i, s := range job.Segments {
			records[i] = semantic.VectorRecord{
				ID:        uuid.NewString(),
				Embedding: job.Embeddings[i],
				Payload: map[string]any{
					"text":          s.Text,
					"video_key":     job.VideoKey,
					"start":         s.Start,
					"end":           s.End,
					"segment_index": i,
				},
			}
		}
		if err := vectors.Upsert(ctx, records); err != nil {
			return fn.Err[string](err)
		}

		var duration float64
		if last := job.Segments[len(job.Segments)-1]; last.End != "" {
			if secs, err := domain.ParseTimestamp(last.End); err == nil {
				duration = secs
			}
		}
		title := job.Title
		if title == "" {
			title = job.VideoKey
		}
		if err := videos.Upsert(ctx, catalog.Video{
			Key:             job.VideoKey,
			Title:           title,
			Path:            job.VideoPath,
			DurationSeconds: duration,
			SegmentCount:    len(job.Segments),
			IngestedAt:      time.Now().UTC(),
		}); err != nil {
			return fn.Err[string](err)
		}
		return fn.Ok(job.VideoKey)
	}
}

// Pipeline wires the full Parse → Embed → Store sequence with tracing.
func Pipeline(embedder BatchEmbedder, vectors VectorUpserter, videos CatalogUpserter) fn.Stage[Job, string] {
	return fn.Then(
		fn.TracedStage("ingest.parse", Parse),
		fn.Then(
			fn.TracedStage("ingest.embed", NewEmbed(embedder)),
			fn.TracedStage("ingest.store", NewStore(vectors, videos)),
		),
	)
}

// ScanDirectory finds subtitle files under root and builds Jobs. The video
// key is the subtitle file's stem; a sibling video with the same stem, if
// present, becomes the job's video path.
func ScanDirectory(root string, logger *slog.Logger) []Job {
	if logger == nil {
		logger = slog.Default()
	}
	var jobs []Job
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("scan skip", "path", path, "err", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".vtt" && ext != ".srt" {
			return nil
		}
		stem := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		job := Job{VideoKey: stem, SubtitlePath: path}
		for _, vext := range []string{".mp4", ".avi", ".mov", ".mkv", ".webm"} {
			candidate := strings.TrimSuffix(path, filepath.Ext(path)) + vext
			if _, statErr := os.Stat(candidate); statErr == nil {
				job.VideoPath = candidate
				break
			}
		}
		jobs = append(jobs, job)
		return nil
	})
	if err != nil {
		logger.Warn("scan directory", "root", root, "err", err)
	}
	return jobs
}
