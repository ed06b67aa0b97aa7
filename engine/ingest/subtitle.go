// Package ingest processes lecture subtitle files into embedded transcript
// segments stored in the vector index, with video metadata recorded in the
// catalog. It runs standalone over a dataset directory or as a NATS worker.
package ingest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vidquest/engine/engine/domain"
)

// Segment is one timed transcript segment.
type Segment struct {
	Start string `json:"start"` // HH:MM:SS.mmm
	End   string `json:"end"`
	Text  string `json:"text"`
}

// ParseSubtitleFile parses a .vtt or .srt file into segments.
func ParseSubtitleFile(path string) ([]Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open subtitle: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".vtt":
		return parseVTT(f)
	case ".srt":
		return parseSRT(f)
	default:
		return nil, fmt.Errorf("ingest: unsupported subtitle format %s", filepath.Ext(path))
	}
}

// parseVTT reads WEBVTT cues: a timing line "start --> end" followed by one
// or more text lines, blocks separated by blank lines. Cue settings after
// the end timestamp and NOTE/STYLE blocks are ignored.
func parseVTT(f *os.File) ([]Segment, error) {
	var segments []Segment
	var cur *Segment

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		if line == "" {
			if cur != nil && cur.Text != "" {
				segments = append(segments, *cur)
			}
			cur = nil
			continue
		}
		if strings.HasPrefix(line, "WEBVTT") || strings.HasPrefix(line, "NOTE") || strings.HasPrefix(line, "STYLE") {
			continue
		}

		if start, end, ok := parseTimingLine(line, " --> "); ok {
			cur = &Segment{Start: start, End: end}
			continue
		}
		if cur != nil {
			if cur.Text != "" {
				cur.Text += " "
			}
			cur.Text += line
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ingest: read vtt: %w", err)
	}
	if cur != nil && cur.Text != "" {
		segments = append(segments, *cur)
	}
	return segments, nil
}

// parseSRT reads SubRip blocks: sequence number, timing line with comma
// milliseconds, then text lines. Timestamps are normalized to the VTT-style
// dot separator so the rest of the pipeline sees one format.
func parseSRT(f *os.File) ([]Segment, error) {
	var segments []Segment
	var cur *Segment

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		if line == "" {
			if cur != nil && cur.Text != "" {
				segments = append(segments, *cur)
			}
			cur = nil
			continue
		}

		if start, end, ok := parseTimingLine(line, " --> "); ok {
			cur = &Segment{
				Start: strings.ReplaceAll(start, ",", "."),
				End:   strings.ReplaceAll(end, ",", "."),
			}
			continue
		}
		if cur == nil {
			// Sequence number line before the timing line.
			continue
		}
		if cur.Text != "" {
			cur.Text += " "
		}
		cur.Text += line
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ingest: read srt: %w", err)
	}
	if cur != nil && cur.Text != "" {
		segments = append(segments, *cur)
	}
	return segments, nil
}

// parseTimingLine splits "start --> end [settings]" and validates both
// timestamps.
func parseTimingLine(line, sep string) (start, end string, ok bool) {
	if !strings.Contains(line, "-->") {
		return "", "", false
	}
	parts := strings.SplitN(line, "-->", 2)
	start = strings.TrimSpace(parts[0])
	end = strings.TrimSpace(parts[1])
	// Drop cue settings after the end timestamp.
	if i := strings.IndexByte(end, ' '); i >= 0 {
		end = end[:i]
	}
	if _, err := domain.ParseTimestamp(strings.ReplaceAll(start, ",", ".")); err != nil {
		return "", "", false
	}
	if _, err := domain.ParseTimestamp(strings.ReplaceAll(end, ",", ".")); err != nil {
		return "", "", false
	}
	return start, end, true
}
