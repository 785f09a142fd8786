package convert

import (
	"fmt"
	"time"

	"crnnprep/internal/manifest"
)

// Job pairs a source directory with the directory its manifest is written to.
type Job struct {
	Source string
	Target string
	// CreateTarget is set when Target is a per-source subdirectory of the
	// output root and may need to be created.
	CreateTarget bool
}

// Skip records an image pair left out of a manifest.
type Skip struct {
	Image         string
	Transcription string
	Err           error
}

// DirectoryResult describes the manifest produced for one source directory.
type DirectoryResult struct {
	Source   string
	Target   string
	Manifest string
	Images   int
	Lines    int
	Skipped  []Skip
	Elapsed  time.Duration
}

// Summary aggregates a conversion run.
type Summary struct {
	RunID       string
	TargetRoot  string
	Directories []DirectoryResult
	Characters  *manifest.CharacterSet
}

// TotalLines returns the number of manifest lines written across directories.
func (s Summary) TotalLines() int {
	total := 0
	for _, dir := range s.Directories {
		total += dir.Lines
	}
	return total
}

// TotalSkipped returns the number of skipped image pairs across directories.
func (s Summary) TotalSkipped() int {
	total := 0
	for _, dir := range s.Directories {
		total += len(dir.Skipped)
	}
	return total
}

// ItemError wraps a failure to turn one image pair into a manifest line.
type ItemError struct {
	Image         string
	Transcription string
	Err           error
}

func (e *ItemError) Error() string {
	if e.Transcription == "" {
		return fmt.Sprintf("image %s: %v", e.Image, e.Err)
	}
	return fmt.Sprintf("image %s (transcription %s): %v", e.Image, e.Transcription, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}
