package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pngHeader is enough of a PNG signature for files that are never decoded.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Line describes one image pair to place in a corpus. An empty Transcription
// with Missing set leaves the ground-truth file out.
type Line struct {
	// Image is the image path relative to the corpus root, e.g. "book/010001.bin.png".
	Image         string
	Transcription string
	Missing       bool
}

// WriteFile creates path (and parents) with the given content.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteCorpus lays out lines under root and returns the absolute image paths
// in the order given.
func WriteCorpus(t testing.TB, root string, lines ...Line) []string {
	t.Helper()

	images := make([]string, 0, len(lines))
	for _, line := range lines {
		image := filepath.Join(root, filepath.FromSlash(line.Image))
		WriteFile(t, image, pngHeader)
		if !line.Missing {
			WriteFile(t, groundTruthPath(image), []byte(line.Transcription))
		}
		abs, err := filepath.Abs(image)
		if err != nil {
			t.Fatalf("abs %s: %v", image, err)
		}
		images = append(images, abs)
	}
	return images
}

// NewCorpus creates a fresh directory named name under a temp dir and fills it.
func NewCorpus(t testing.TB, name string, lines ...Line) (string, []string) {
	t.Helper()

	root := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("mkdir corpus %s: %v", root, err)
	}
	return root, WriteCorpus(t, root, lines...)
}

// ReadLines returns the non-empty lines of a manifest file.
func ReadLines(t testing.TB, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func groundTruthPath(image string) string {
	dir, name := filepath.Split(image)
	name = strings.ReplaceAll(name, ".bin", "")
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return dir + name + ".gt.txt"
}
