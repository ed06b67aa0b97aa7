// Package video wraps the external video tooling: locating source files by
// key, extracting clips with ffmpeg, and probing metadata with ffprobe.
package video

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// SupportedExtensions are the container formats the locator recognises,
// in lookup preference order.
var SupportedExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm"}

// Locator finds source videos by key under a configured root.
type Locator struct {
	root string
}

// NewLocator creates a Locator rooted at dir.
func NewLocator(dir string) *Locator {
	return &Locator{root: dir}
}

// Find walks the root looking for a file whose stem equals key exactly.
// Keys are unique per source file, so the first match wins. A missing
// source is a normal outcome, not an error.
func (l *Locator) Find(key string) (string, bool) {
	supported := make(map[string]int, len(SupportedExtensions))
	for i, ext := range SupportedExtensions {
		supported[ext] = i
	}

	best := ""
	bestRank := len(SupportedExtensions)
	filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		rank, ok := supported[ext]
		if !ok {
			return nil
		}
		stem := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		if stem == key && rank < bestRank {
			best = path
			bestRank = rank
		}
		return nil
	})
	return best, best != ""
}
