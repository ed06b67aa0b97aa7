package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// Clipper extracts trimmed clips via ffmpeg. Stream copy keeps extraction
// fast; timestamps are passed to ffmpeg in their textual HH:MM:SS.mmm form.
type Clipper struct {
	timeout time.Duration
	// run executes the ffmpeg invocation; injectable for tests.
	run func(ctx context.Context, name string, args ...string) error
}

// NewClipper creates a Clipper with the given per-invocation timeout.
func NewClipper(timeout time.Duration) *Clipper {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Clipper{
		timeout: timeout,
		run: func(ctx context.Context, name string, args ...string) error {
			cmd := exec.CommandContext(ctx, name, args...)
			out, err := cmd.CombinedOutput()
			if err != nil {
				return fmt.Errorf("%s: %w: %s", name, err, out)
			}
			return nil
		},
	}
}

// Extract writes the [start, end] range of src to dst. The clip is written
// to a temporary sibling path and renamed into place so concurrent requests
// for the same dst never observe a half-written file.
func (c *Clipper) Extract(ctx context.Context, src, start, end, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tmp := dst + ".part"
	args := []string{
		"-ss", start,
		"-to", end,
		"-i", src,
		"-c:v", "copy",
		"-c:a", "copy",
		"-avoid_negative_ts", "make_zero",
		"-f", "mp4",
		"-y", tmp,
	}
	if err := c.run(ctx, "ffmpeg", args...); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("video: extract clip: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("video: finalize clip: %w", err)
	}
	return nil
}

// Metadata is the subset of ffprobe output the engine cares about.
type Metadata struct {
	Path     string
	Duration float64
	Width    int
	Height   int
	Codec    string
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads container and stream metadata via ffprobe.
func Probe(ctx context.Context, path string) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return Metadata{}, fmt.Errorf("video: ffprobe %s: %w", filepath.Base(path), err)
	}

	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return Metadata{}, fmt.Errorf("video: decode ffprobe output: %w", err)
	}

	meta := Metadata{Path: path}
	if d, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
		meta.Duration = d
	}
	for _, s := range parsed.Streams {
		if s.CodecType == "video" {
			meta.Width = s.Width
			meta.Height = s.Height
			meta.Codec = s.CodecName
			break
		}
	}
	if meta.Codec == "" {
		return Metadata{}, fmt.Errorf("video: no video stream in %s", filepath.Base(path))
	}
	return meta, nil
}
