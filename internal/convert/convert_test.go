package convert_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/sys/unix"

	"crnnprep/internal/convert"
	"crnnprep/internal/corpus"
	"crnnprep/internal/logging"
	"crnnprep/internal/manifest"
	"crnnprep/internal/testsupport"
)

func newConverter(opts convert.Options) *convert.Converter {
	opts.Discovery.Sort = true
	return convert.New(opts, logging.NewNop())
}

func TestRunSingleSourceWritesManifestAtRoot(t *testing.T) {
	source, images := testsupport.NewCorpus(t, "A",
		testsupport.Line{Image: "010001.bin.png", Transcription: "hello\n"},
		testsupport.Line{Image: "sub/010002.bin.png", Transcription: "ok"},
	)
	root := filepath.Join(t.TempDir(), "out")

	summary, err := newConverter(convert.Options{}).Run(context.Background(), []string{source}, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	manifestPath := filepath.Join(root, manifest.FileName)
	lines := testsupport.ReadLines(t, manifestPath)
	want := []string{
		images[0] + ";|h|e|l|l|o",
		images[1] + ";|o|k",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	if summary.TotalLines() != 2 {
		t.Fatalf("TotalLines = %d, want 2", summary.TotalLines())
	}
	if len(summary.Directories) != 1 || summary.Directories[0].Manifest != manifestPath {
		t.Fatalf("unexpected directories: %+v", summary.Directories)
	}
	if summary.RunID == "" {
		t.Fatal("expected a run id")
	}
}

func TestRunMultipleSourcesUseSubdirectories(t *testing.T) {
	sourceA, _ := testsupport.NewCorpus(t, "A", testsupport.Line{Image: "1.bin.png", Transcription: "a"})
	sourceB, _ := testsupport.NewCorpus(t, "B",
		testsupport.Line{Image: "1.bin.png", Transcription: "b"},
		testsupport.Line{Image: "2.bin.png", Transcription: "bb"},
	)
	root := filepath.Join(t.TempDir(), "out")

	summary, err := newConverter(convert.Options{}).Run(context.Background(), []string{sourceA, sourceB}, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := testsupport.ReadLines(t, filepath.Join(root, "A", manifest.FileName)); len(got) != 1 {
		t.Fatalf("A lines = %q, want 1", got)
	}
	if got := testsupport.ReadLines(t, filepath.Join(root, "B", manifest.FileName)); len(got) != 2 {
		t.Fatalf("B lines = %q, want 2", got)
	}
	if _, err := os.Stat(filepath.Join(root, manifest.FileName)); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("root manifest should not exist, stat err = %v", err)
	}
	if summary.Directories[0].Target != filepath.Join(root, "A") {
		t.Fatalf("first target = %q", summary.Directories[0].Target)
	}
}

func TestRunTruncatesPreviousManifest(t *testing.T) {
	source, _ := testsupport.NewCorpus(t, "A",
		testsupport.Line{Image: "1.bin.png", Transcription: "x"},
		testsupport.Line{Image: "2.bin.png", Transcription: "y"},
	)
	root := t.TempDir()
	conv := newConverter(convert.Options{})

	for range 2 {
		if _, err := conv.Run(context.Background(), []string{source}, root); err != nil {
			t.Fatalf("Run: %v", err)
		}
	}
	if got := testsupport.ReadLines(t, filepath.Join(root, manifest.FileName)); len(got) != 2 {
		t.Fatalf("lines after rerun = %d, want 2", len(got))
	}
}

func TestRunAbortsOnMissingTranscription(t *testing.T) {
	source, images := testsupport.NewCorpus(t, "A",
		testsupport.Line{Image: "1.bin.png", Transcription: "one"},
		testsupport.Line{Image: "2.bin.png", Missing: true},
		testsupport.Line{Image: "3.bin.png", Transcription: "three"},
	)
	root := t.TempDir()

	summary, err := newConverter(convert.Options{}).Run(context.Background(), []string{source}, root)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, corpus.ErrTranscriptionNotFound) {
		t.Fatalf("expected ErrTranscriptionNotFound, got %v", err)
	}
	var itemErr *convert.ItemError
	if !errors.As(err, &itemErr) || itemErr.Image != images[1] {
		t.Fatalf("expected ItemError for %s, got %v", images[1], err)
	}
	if len(summary.Directories) != 0 {
		t.Fatalf("aborted directory should not be reported: %+v", summary.Directories)
	}
	// Lines before the failure are flushed; nothing after it is written.
	if got := testsupport.ReadLines(t, filepath.Join(root, manifest.FileName)); len(got) != 1 {
		t.Fatalf("lines = %q, want 1", got)
	}
}

func TestRunSkipsMissingTranscription(t *testing.T) {
	source, images := testsupport.NewCorpus(t, "A",
		testsupport.Line{Image: "1.bin.png", Transcription: "one"},
		testsupport.Line{Image: "2.bin.png", Missing: true},
		testsupport.Line{Image: "3.bin.png", Transcription: "three"},
	)
	root := t.TempDir()

	summary, err := newConverter(convert.Options{SkipItemErrors: true}).Run(context.Background(), []string{source}, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := testsupport.ReadLines(t, filepath.Join(root, manifest.FileName)); len(got) != 2 {
		t.Fatalf("lines = %q, want 2", got)
	}
	if summary.TotalSkipped() != 1 {
		t.Fatalf("TotalSkipped = %d, want 1", summary.TotalSkipped())
	}
	skip := summary.Directories[0].Skipped[0]
	if skip.Image != images[1] || !errors.Is(skip.Err, corpus.ErrTranscriptionNotFound) {
		t.Fatalf("unexpected skip: %+v", skip)
	}
	if summary.Directories[0].Images != 3 {
		t.Fatalf("Images = %d, want 3", summary.Directories[0].Images)
	}
}

func TestRunRejectsSeparatorInTranscription(t *testing.T) {
	source, _ := testsupport.NewCorpus(t, "A", testsupport.Line{Image: "1.bin.png", Transcription: "a;b"})

	_, err := newConverter(convert.Options{}).Run(context.Background(), []string{source}, t.TempDir())
	if !errors.Is(err, manifest.ErrDelimiterCollision) {
		t.Fatalf("expected ErrDelimiterCollision, got %v", err)
	}
}

func TestRunValidatesBeforeWriting(t *testing.T) {
	good, _ := testsupport.NewCorpus(t, "A", testsupport.Line{Image: "1.bin.png", Transcription: "a"})
	missing := filepath.Join(t.TempDir(), "nope")
	root := filepath.Join(t.TempDir(), "out")

	_, err := newConverter(convert.Options{}).Run(context.Background(), []string{good, missing}, root)
	if !errors.Is(err, corpus.ErrSourceNotDirectory) {
		t.Fatalf("expected ErrSourceNotDirectory, got %v", err)
	}
	if _, err := os.Stat(root); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("target root should not be created, stat err = %v", err)
	}
}

func TestPlanRejectsDuplicateBaseNames(t *testing.T) {
	first, _ := testsupport.NewCorpus(t, "book")
	second, _ := testsupport.NewCorpus(t, "book")

	_, err := convert.Plan([]string{first, second}, t.TempDir())
	if !errors.Is(err, convert.ErrDuplicateTarget) {
		t.Fatalf("expected ErrDuplicateTarget, got %v", err)
	}
}

func TestTargetDirectory(t *testing.T) {
	tests := []struct {
		source string
		multi  bool
		want   string
	}{
		{source: "/data/A", multi: false, want: "/out"},
		{source: "/data/A", multi: true, want: "/out/A"},
		{source: "/data/A/", multi: true, want: "/out/A"},
	}
	for _, tt := range tests {
		if got := convert.TargetDirectory(tt.source, "/out", tt.multi); got != tt.want {
			t.Fatalf("TargetDirectory(%q, %v) = %q, want %q", tt.source, tt.multi, got, tt.want)
		}
	}
}

func TestRunEmptySourceWritesEmptyManifest(t *testing.T) {
	source, _ := testsupport.NewCorpus(t, "A")
	root := t.TempDir()

	summary, err := newConverter(convert.Options{}).Run(context.Background(), []string{source}, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	info, err := os.Stat(filepath.Join(root, manifest.FileName))
	if err != nil {
		t.Fatalf("stat manifest: %v", err)
	}
	if info.Size() != 0 || summary.TotalLines() != 0 {
		t.Fatalf("expected empty manifest, size=%d lines=%d", info.Size(), summary.TotalLines())
	}
}

func TestRunCollectsCharactersAndCallsHooks(t *testing.T) {
	sourceA, _ := testsupport.NewCorpus(t, "A", testsupport.Line{Image: "1.bin.png", Transcription: "ab"})
	sourceB, _ := testsupport.NewCorpus(t, "B", testsupport.Line{Image: "1.bin.png", Transcription: "bc"})

	var (
		mu       sync.Mutex
		started  int
		items    int
		finished int
	)
	opts := convert.Options{
		Workers:           2,
		CollectCharacters: true,
		Hooks: convert.Hooks{
			DirectoryStarted: func(convert.Job, int) {
				mu.Lock()
				started++
				mu.Unlock()
			},
			ItemDone: func(convert.Job) {
				mu.Lock()
				items++
				mu.Unlock()
			},
			DirectoryFinished: func(convert.DirectoryResult) {
				mu.Lock()
				finished++
				mu.Unlock()
			},
		},
	}

	summary, err := newConverter(opts).Run(context.Background(), []string{sourceA, sourceB}, t.TempDir())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := summary.Characters.Sorted(); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("characters = %q, want [a b c]", got)
	}
	if started != 2 || items != 2 || finished != 2 {
		t.Fatalf("hooks started=%d items=%d finished=%d", started, items, finished)
	}
	if len(summary.Directories) != 2 || filepath.Base(summary.Directories[0].Source) != "A" {
		t.Fatalf("directories out of order: %+v", summary.Directories)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	source, _ := testsupport.NewCorpus(t, "A", testsupport.Line{Image: "1.bin.png", Transcription: "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newConverter(convert.Options{}).Run(ctx, []string{source}, t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunFollowsSymlinkedCorpus(t *testing.T) {
	source, images := testsupport.NewCorpus(t, "real",
		testsupport.Line{Image: "1.bin.png", Transcription: "one"},
		testsupport.Line{Image: "sub/2.bin.png", Transcription: "two"},
	)
	train := filepath.Join(t.TempDir(), "train")
	if err := os.MkdirAll(train, 0o755); err != nil {
		t.Fatalf("mkdir train: %v", err)
	}
	links := map[string]string{
		"1.bin.png": images[0],
		"1.gt.txt":  filepath.Join(source, "1.gt.txt"),
		"linkeddir": filepath.Join(source, "sub"),
	}
	for name, target := range links {
		if err := os.Symlink(target, filepath.Join(train, name)); err != nil {
			t.Fatalf("symlink %s: %v", name, err)
		}
	}
	root := t.TempDir()

	summary, err := newConverter(convert.Options{}).Run(context.Background(), []string{train}, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := testsupport.ReadLines(t, filepath.Join(root, manifest.FileName))
	want := []string{
		filepath.Join(train, "1.bin.png") + ";|o|n|e",
		filepath.Join(train, "linkeddir", "2.bin.png") + ";|t|w|o",
	}
	if len(lines) != len(want) || lines[0] != want[0] || lines[1] != want[1] {
		t.Fatalf("lines got %q want %q", lines, want)
	}
	if summary.Directories[0].Images != 2 {
		t.Fatalf("Images = %d, want 2", summary.Directories[0].Images)
	}
}

func TestRunWritesWorldReadableManifest(t *testing.T) {
	old := unix.Umask(0o022)
	t.Cleanup(func() { unix.Umask(old) })

	source, _ := testsupport.NewCorpus(t, "A", testsupport.Line{Image: "1.bin.png", Transcription: "a"})
	root := filepath.Join(t.TempDir(), "out")

	if _, err := newConverter(convert.Options{}).Run(context.Background(), []string{source}, root); err != nil {
		t.Fatalf("Run: %v", err)
	}
	info, err := os.Stat(filepath.Join(root, manifest.FileName))
	if err != nil {
		t.Fatalf("stat manifest: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o644 {
		t.Fatalf("manifest mode got %v want %v", got, os.FileMode(0o644))
	}
}
