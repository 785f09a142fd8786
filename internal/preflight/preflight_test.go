package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crnnprep/internal/config"
	"crnnprep/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckWritableTarget_NotYetCreated(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "output")
	result := CheckWritableTarget("Output", target)
	if !result.Passed {
		t.Fatalf("expected pass for creatable target, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("check must not create the target, stat err = %v", err)
	}
}

func TestCheckTranscriptionsCountsMissing(t *testing.T) {
	root, _ := testsupport.NewCorpus(t, "book",
		testsupport.Line{Image: "1.bin.png", Transcription: "a"},
		testsupport.Line{Image: "2.bin.png", Missing: true},
		testsupport.Line{Image: "3.bin.png", Transcription: "c"},
	)
	result := CheckTranscriptions("Pairs", root, nil)
	if result.Passed {
		t.Fatal("expected failure when a transcription is missing")
	}
	if result.Detail != "3 images, 1 without transcription" {
		t.Fatalf("detail got %q want %q", result.Detail, "3 images, 1 without transcription")
	}
}

func TestRunAll(t *testing.T) {
	cfgVal := config.Default()
	cfgVal.History.Path = filepath.Join(t.TempDir(), "state", "history.db")
	root, _ := testsupport.NewCorpus(t, "book", testsupport.Line{Image: "1.bin.png", Transcription: "a"})
	missing := filepath.Join(t.TempDir(), "missing")

	results := RunAll(&cfgVal, []string{root, missing}, filepath.Join(t.TempDir(), "out"))
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	want := []string{"Source book", "Pairs book", "Source missing", "Output", "History"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("names got %q want %q", names, want)
	}
	if !Failed(results) {
		t.Fatal("expected a failing result for the missing source")
	}
	if results[1].Detail != "1 images, all paired" {
		t.Fatalf("pairs detail = %q", results[1].Detail)
	}
}
