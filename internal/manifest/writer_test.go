package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	"crnnprep/internal/manifest"
)

func TestWriterCreatesAndAppends(t *testing.T) {
	dir := t.TempDir()
	w, err := manifest.Create(dir)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	for _, line := range []string{"a.png;|a\n", "b.png;|b\n"} {
		if err := w.Append(line); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}
	if w.Lines() != 2 {
		t.Fatalf("unexpected line count: %d", w.Lines())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}

	path := filepath.Join(dir, manifest.FileName)
	if w.Path() != path {
		t.Fatalf("unexpected path: got %q want %q", w.Path(), path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if string(data) != "a.png;|a\nb.png;|b\n" {
		t.Fatalf("unexpected manifest content: %q", data)
	}
	if err := w.Append("late\n"); err == nil {
		t.Fatal("expected append after close to fail")
	}
}

func TestWriterTruncatesExistingManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, manifest.FileName)
	if err := os.WriteFile(path, []byte("stale.png;|s\n"), 0o644); err != nil {
		t.Fatalf("seed manifest: %v", err)
	}

	w, err := manifest.Create(dir)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected truncated manifest, got %q", data)
	}
}

func TestWriterRejectsSecondWriter(t *testing.T) {
	dir := t.TempDir()
	first, err := manifest.Create(dir)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	defer first.Close()
	if err := first.Append("kept.png;|k\n"); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	if _, err := manifest.Create(dir); !errors.Is(err, manifest.ErrManifestBusy) {
		t.Fatalf("expected ErrManifestBusy, got %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, manifest.FileName))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if string(data) != "kept.png;|k\n" {
		t.Fatalf("busy Create must not truncate: got %q", data)
	}
}

func TestWriterCreatesWorldReadableManifest(t *testing.T) {
	old := unix.Umask(0o022)
	t.Cleanup(func() { unix.Umask(old) })

	dir := t.TempDir()
	w, err := manifest.Create(dir)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, manifest.FileName))
	if err != nil {
		t.Fatalf("stat manifest: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o644 {
		t.Fatalf("manifest mode got %v want %v", got, os.FileMode(0o644))
	}
}

func TestWriterMissingDirectory(t *testing.T) {
	if _, err := manifest.Create(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
