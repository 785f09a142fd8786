package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrManifestBusy reports a manifest already held open by another writer.
var ErrManifestBusy = errors.New("manifest is locked by another writer")

// Writer appends encoded lines to one manifest file. It holds an exclusive
// lock on the file until Close, which must be called on every exit path.
type Writer struct {
	path  string
	file  *os.File
	buf   *bufio.Writer
	lock  *flock.Flock
	lines int
}

// Create truncates (or creates) dir/groundtruth.csv and returns a Writer for it.
// The directory must already exist. The file is created world-readable before
// the lock is taken, and only truncated once the lock is held.
func Create(dir string) (*Writer, error) {
	path := filepath.Join(dir, FileName)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create manifest %s: %w", path, err)
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("lock manifest %s: %w", path, err)
	}
	if !ok {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %s", ErrManifestBusy, path)
	}

	if err := file.Truncate(0); err != nil {
		_ = file.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("truncate manifest %s: %w", path, err)
	}

	return &Writer{
		path: path,
		file: file,
		buf:  bufio.NewWriter(file),
		lock: lock,
	}, nil
}

// Append writes one encoded line.
func (w *Writer) Append(line string) error {
	if w.file == nil {
		return fmt.Errorf("append to closed manifest %s", w.path)
	}
	if _, err := w.buf.WriteString(line); err != nil {
		return fmt.Errorf("append to manifest %s: %w", w.path, err)
	}
	w.lines++
	return nil
}

// Lines returns the number of lines appended so far.
func (w *Writer) Lines() int {
	return w.lines
}

// Path returns the manifest file path.
func (w *Writer) Path() string {
	return w.path
}

// Close flushes buffered lines, closes the file, and releases the lock. It is
// safe to call more than once.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	var errs []error
	if err := w.buf.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush manifest %s: %w", w.path, err))
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close manifest %s: %w", w.path, err))
	}
	if err := w.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("unlock manifest %s: %w", w.path, err))
	}
	w.file = nil
	return errors.Join(errs...)
}
