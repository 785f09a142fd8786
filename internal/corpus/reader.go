package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrTranscriptionNotFound reports a missing companion transcription file.
var ErrTranscriptionNotFound = errors.New("transcription file not found")

// Normalization selects an optional Unicode normalization form.
type Normalization string

const (
	NormalizeNone Normalization = "none"
	NormalizeNFC  Normalization = "nfc"
	NormalizeNFD  Normalization = "nfd"
)

// ReadTranscription returns the transcription stored at path with leading and
// trailing whitespace removed, then normalized according to form.
func ReadTranscription(path string, form Normalization) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s: %w", ErrTranscriptionNotFound, path, err)
		}
		return "", fmt.Errorf("read transcription %s: %w", path, err)
	}
	content := strings.TrimSpace(string(data))
	switch form {
	case NormalizeNFC:
		content = norm.NFC.String(content)
	case NormalizeNFD:
		content = norm.NFD.String(content)
	}
	return content, nil
}
