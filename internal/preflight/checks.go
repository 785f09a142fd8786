package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"crnnprep/internal/corpus"
)

// CheckSourceDirectory verifies that a source exists and can be traversed.
func CheckSourceDirectory(name, path string) Result {
	if err := corpus.CheckSourceDirectory(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckTranscriptions counts images under path and how many of them have no
// usable transcription file.
func CheckTranscriptions(name, path string, extensions []string) Result {
	images, err := corpus.Discover(path, corpus.DiscoverOptions{Extensions: extensions})
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: discover: %v)", path, err)}
	}
	missing := 0
	for _, image := range images {
		transcription, err := corpus.TranscriptionPath(image)
		if err != nil {
			missing++
			continue
		}
		if info, err := os.Stat(transcription); err != nil || !info.Mode().IsRegular() {
			missing++
		}
	}
	detail := fmt.Sprintf("%s images", humanize.Comma(int64(len(images))))
	if missing > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s, %s without transcription", detail, humanize.Comma(int64(missing)))}
	}
	if len(images) == 0 {
		return Result{Name: name, Passed: true, Detail: detail + " (manifest will be empty)"}
	}
	return Result{Name: name, Passed: true, Detail: detail + ", all paired"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckWritableTarget passes when path is a writable directory, or when it
// does not exist yet but its nearest existing ancestor is writable.
func CheckWritableTarget(name, path string) Result {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if _, err := os.Stat(abs); err == nil {
		return CheckDirectoryAccess(name, abs)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", abs, err)}
	}

	parent := filepath.Dir(abs)
	for {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		next := filepath.Dir(parent)
		if next == parent {
			break
		}
		parent = next
	}
	ancestor := CheckDirectoryAccess(name, parent)
	if !ancestor.Passed {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s)", abs, parent)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", abs)}
}
