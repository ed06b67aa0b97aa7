package content

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vidquest/engine/engine/domain"
)

// SourceLocator finds a source video path by key.
type SourceLocator interface {
	Find(key string) (string, bool)
}

// ClipExtractor produces a trimmed clip file from a source video.
type ClipExtractor interface {
	Extract(ctx context.Context, src, start, end, dst string) error
}

// ClipResolver materializes clips on demand, memoized by output path
// existence. A clip is enrichment, not a correctness requirement: every
// failure path degrades to "no clip" instead of failing the query.
type ClipResolver struct {
	locator   SourceLocator
	extractor ClipExtractor
	outputDir string
	slots     chan struct{}
	logger    *slog.Logger
}

// NewClipResolver creates a resolver writing clips to outputDir. At most
// maxConcurrent extractions run at once; further requests wait for a slot
// rather than being rejected.
func NewClipResolver(locator SourceLocator, extractor ClipExtractor, outputDir string, maxConcurrent int, logger *slog.Logger) *ClipResolver {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClipResolver{
		locator:   locator,
		extractor: extractor,
		outputDir: outputDir,
		slots:     make(chan struct{}, maxConcurrent),
		logger:    logger,
	}
}

// ClipFilename derives the deterministic output name for a clip, with time
// separators normalized so the path is filesystem-safe.
func ClipFilename(videoKey, start, end string) string {
	return fmt.Sprintf("%s_%s_to_%s.mp4",
		videoKey, domain.SanitizeTimestamp(start), domain.SanitizeTimestamp(end))
}

// Resolve returns the clip path for (videoKey, start, end), producing the
// file if needed. The second return is false whenever no clip is available:
// a missing source video or a failed extraction, both tolerated outcomes.
func (r *ClipResolver) Resolve(ctx context.Context, videoKey, start, end string) (string, bool) {
	out := filepath.Join(r.outputDir, ClipFilename(videoKey, start, end))

	// Memoized: an existing file is returned without re-encoding.
	if _, err := os.Stat(out); err == nil {
		return out, true
	}

	src, ok := r.locator.Find(videoKey)
	if !ok {
		r.logger.Info("clip source not found", "video_key", videoKey)
		return "", false
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		r.logger.Warn("clip output dir", "err", err)
		return "", false
	}

	// Counting admission gate on transcoder subprocesses.
	select {
	case r.slots <- struct{}{}:
		defer func() { <-r.slots }()
	case <-ctx.Done():
		r.logger.Warn("clip slot wait cancelled", "video_key", videoKey)
		return "", false
	}

	// A concurrent request may have produced the clip while we waited.
	if _, err := os.Stat(out); err == nil {
		return out, true
	}

	if err := r.extractor.Extract(ctx, src, start, end, out); err != nil {
		clipErr := domain.E(domain.KindClip, "extract clip", err)
		r.logger.Warn("clip extraction failed, continuing without", "video_key", videoKey, "err", clipErr)
		return "", false
	}
	return out, true
}
