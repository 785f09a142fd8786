package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"crnnprep/internal/fileutil"
)

// CharacterSet accumulates the distinct transcription tokens of a run.
// It is safe for concurrent use.
type CharacterSet struct {
	mu    sync.Mutex
	chars map[string]struct{}
}

// NewCharacterSet returns an empty set.
func NewCharacterSet() *CharacterSet {
	return &CharacterSet{chars: make(map[string]struct{})}
}

// Add records tokens.
func (s *CharacterSet) Add(tokens ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, token := range tokens {
		s.chars[token] = struct{}{}
	}
}

// Merge adds every token of other.
func (s *CharacterSet) Merge(other *CharacterSet) {
	if other == nil || other == s {
		return
	}
	s.Add(other.Sorted()...)
}

// Len returns the number of distinct tokens.
func (s *CharacterSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chars)
}

// Sorted returns the tokens in code point order.
func (s *CharacterSet) Sorted() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.chars))
	for token := range s.chars {
		out = append(out, token)
	}
	s.mu.Unlock()
	sort.Strings(out)
	return out
}

// Alphabet maps each token to a 1-based index in code point order, the shape
// tf-crnn expects for lookup_alphabet_file.
func (s *CharacterSet) Alphabet() map[string]int {
	sorted := s.Sorted()
	alphabet := make(map[string]int, len(sorted))
	for i, token := range sorted {
		alphabet[token] = i + 1
	}
	return alphabet
}

// WriteAlphabet writes Alphabet as indented JSON to path.
func (s *CharacterSet) WriteAlphabet(path string) error {
	alphabet := s.Alphabet()
	err := fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetEscapeHTML(false)
		encoder.SetIndent("", "  ")
		return encoder.Encode(alphabet)
	})
	if err != nil {
		return fmt.Errorf("write alphabet %s: %w", path, err)
	}
	return nil
}
