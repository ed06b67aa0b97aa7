package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLocator_Find(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "week1", "lec3.mp4"))
	touch(t, filepath.Join(root, "week1", "lec3.vtt"))
	touch(t, filepath.Join(root, "week2", "lec7.webm"))

	l := NewLocator(root)

	path, ok := l.Find("lec3")
	if !ok {
		t.Fatal("expected to find lec3")
	}
	if filepath.Base(path) != "lec3.mp4" {
		t.Errorf("unexpected match: %s", path)
	}

	path, ok = l.Find("lec7")
	if !ok || filepath.Base(path) != "lec7.webm" {
		t.Errorf("expected lec7.webm, got %q ok=%v", path, ok)
	}

	if _, ok := l.Find("lec99"); ok {
		t.Error("missing key should not match")
	}
	// Stem match must be exact, not a prefix.
	if _, ok := l.Find("lec"); ok {
		t.Error("partial stem should not match")
	}
}

func TestLocator_PrefersMP4(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a", "lec1.webm"))
	touch(t, filepath.Join(root, "b", "lec1.mp4"))

	path, ok := NewLocator(root).Find("lec1")
	if !ok || filepath.Ext(path) != ".mp4" {
		t.Errorf("expected .mp4 preferred, got %q", path)
	}
}

func TestClipper_ExtractRenamesIntoPlace(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "lec3_00-01-00-000_to_00-02-00-000.mp4")

	c := NewClipper(time.Second)
	var gotArgs []string
	c.run = func(_ context.Context, name string, args ...string) error {
		gotArgs = append([]string{name}, args...)
		// ffmpeg writes the temp output path, which is the last argument.
		return os.WriteFile(args[len(args)-1], []byte("clip"), 0o644)
	}

	if err := c.Extract(context.Background(), "/videos/lec3.mp4", "00:01:00.000", "00:02:00.000", dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("clip not in place: %v", err)
	}
	if _, err := os.Stat(dst + ".part"); !os.IsNotExist(err) {
		t.Error("temp file should be gone after rename")
	}
	if gotArgs[0] != "ffmpeg" || gotArgs[2] != "00:01:00.000" || gotArgs[4] != "00:02:00.000" {
		t.Errorf("unexpected invocation: %v", gotArgs)
	}
}

func TestClipper_ExtractFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.mp4")

	c := NewClipper(time.Second)
	c.run = func(_ context.Context, _ string, args ...string) error {
		os.WriteFile(args[len(args)-1], []byte("partial"), 0o644)
		return fmt.Errorf("exit status 1")
	}

	if err := c.Extract(context.Background(), "src.mp4", "00:00:01", "00:00:02", dst); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("destination must not exist after failure")
	}
	if _, err := os.Stat(dst + ".part"); !os.IsNotExist(err) {
		t.Error("partial file must be removed after failure")
	}
}
