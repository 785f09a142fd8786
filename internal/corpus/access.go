package corpus

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrSourceNotDirectory reports a source path that is missing or not a directory.
var ErrSourceNotDirectory = errors.New("source is not a directory")

// CheckSourceDirectory verifies that path exists, is a directory, and can be
// listed and traversed.
func CheckSourceDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: directory %s does not exist", ErrSourceNotDirectory, path)
		}
		return fmt.Errorf("inspect directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrSourceNotDirectory, path)
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return fmt.Errorf("directory %s is not readable: %w", path, err)
	}
	return nil
}
