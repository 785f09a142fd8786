package corpus

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// BinaryMarker is the segment ocropus-nlbin inserts before the image suffix.
	BinaryMarker = ".bin"
	// TranscriptionSuffix replaces the image suffix on the companion file.
	TranscriptionSuffix = "gt.txt"
)

// ErrMalformedFilename reports an image name that has no stem or no suffix to replace.
var ErrMalformedFilename = errors.New("malformed image filename")

// TranscriptionPath derives the ground-truth path for an image file. The
// directory is kept as-is; only the base name is rewritten.
func TranscriptionPath(imagePath string) (string, error) {
	dir, name := filepath.Split(imagePath)
	stripped := strings.ReplaceAll(name, BinaryMarker, "")
	parts := strings.Split(stripped, ".")
	if len(parts) < 2 || parts[0] == "" {
		return "", fmt.Errorf("%w: %q needs a name and an image suffix", ErrMalformedFilename, imagePath)
	}
	stem := strings.Join(parts[:len(parts)-1], ".")
	return dir + stem + "." + TranscriptionSuffix, nil
}
