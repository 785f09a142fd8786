package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

const (
	// FileName is the fixed manifest name inside every target directory.
	FileName = "groundtruth.csv"
	// ColumnSeparator separates the image path from the transcription.
	ColumnSeparator = ";"
	// CharSeparator precedes the transcription and separates its characters.
	CharSeparator = "|"
)

// ErrDelimiterCollision reports content that would make a manifest line ambiguous.
var ErrDelimiterCollision = errors.New("content contains a manifest separator")

// EscapePolicy decides how separator characters inside a field are handled.
type EscapePolicy string

const (
	EscapeReject      EscapePolicy = "reject"
	EscapeBackslash   EscapePolicy = "escape"
	EscapeAllowUnsafe EscapePolicy = "allow-unsafe"
)

// CharMode decides what one transcription token is.
type CharMode string

const (
	// CharModeScalar emits one token per Unicode code point.
	CharModeScalar CharMode = "scalar"
	// CharModeGrapheme emits one token per extended grapheme cluster, keeping
	// combining sequences together.
	CharModeGrapheme CharMode = "grapheme"
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	ColumnSeparator, `\`+ColumnSeparator,
	CharSeparator, `\`+CharSeparator,
	"\n", `\n`,
	"\r", `\r`,
)

// Encoder turns an image path and its transcription into a manifest line.
// The zero value rejects separators and splits on code points.
type Encoder struct {
	Escape EscapePolicy
	Mode   CharMode
}

// Split returns the transcription tokens for content according to the
// encoder's character mode.
func (e Encoder) Split(content string) []string {
	if content == "" {
		return nil
	}
	if e.Mode == CharModeGrapheme {
		tokens := make([]string, 0, len(content))
		graphemes := uniseg.NewGraphemes(content)
		for graphemes.Next() {
			tokens = append(tokens, graphemes.Str())
		}
		return tokens
	}
	tokens := make([]string, 0, len(content))
	for _, r := range content {
		tokens = append(tokens, string(r))
	}
	return tokens
}

// Encode builds one newline-terminated manifest line.
func (e Encoder) Encode(imagePath, content string) (string, error) {
	line, _, err := e.EncodeTokens(imagePath, content)
	return line, err
}

// EncodeTokens is Encode that also returns the unescaped tokens written, for
// callers that track the character set.
func (e Encoder) EncodeTokens(imagePath, content string) (string, []string, error) {
	path, err := e.field(imagePath, "\n\r"+ColumnSeparator)
	if err != nil {
		return "", nil, fmt.Errorf("image path %q: %w", imagePath, err)
	}
	tokens := e.Split(content)
	escaped := make([]string, len(tokens))
	for i, token := range tokens {
		value, err := e.field(token, "\n\r"+ColumnSeparator+CharSeparator)
		if err != nil {
			return "", nil, fmt.Errorf("transcription %q: %w", content, err)
		}
		escaped[i] = value
	}

	var b strings.Builder
	b.Grow(len(path) + 2 + 2*len(content) + 1)
	b.WriteString(path)
	b.WriteString(ColumnSeparator)
	b.WriteString(CharSeparator)
	b.WriteString(strings.Join(escaped, CharSeparator))
	b.WriteByte('\n')
	return b.String(), tokens, nil
}

func (e Encoder) field(value, forbidden string) (string, error) {
	if !strings.ContainsAny(value, forbidden) {
		if e.Escape == EscapeBackslash {
			return strings.ReplaceAll(value, `\`, `\\`), nil
		}
		return value, nil
	}
	switch e.Escape {
	case EscapeAllowUnsafe:
		return value, nil
	case EscapeBackslash:
		return escaper.Replace(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrDelimiterCollision, value)
	}
}
