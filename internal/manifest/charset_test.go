package manifest_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"crnnprep/internal/manifest"
)

func TestCharacterSetMergeAndSort(t *testing.T) {
	a := manifest.NewCharacterSet()
	b := manifest.NewCharacterSet()

	var wg sync.WaitGroup
	for _, word := range []string{"hello", "world"} {
		wg.Add(1)
		go func(word string) {
			defer wg.Done()
			a.Add(strings.Split(word, "")...)
		}(word)
	}
	wg.Wait()
	b.Add("z", "<")

	a.Merge(b)
	a.Merge(a)
	a.Merge(nil)

	got := strings.Join(a.Sorted(), "")
	if got != "<dehlorwz" {
		t.Fatalf("unexpected sorted set: %q", got)
	}
	if a.Len() != 9 {
		t.Fatalf("unexpected size: %d", a.Len())
	}
}

func TestCharacterSetWriteAlphabet(t *testing.T) {
	set := manifest.NewCharacterSet()
	set.Add("b", "a", "&")

	path := filepath.Join(t.TempDir(), "out", "alphabet.json")
	if err := set.WriteAlphabet(path); err != nil {
		t.Fatalf("WriteAlphabet returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read alphabet: %v", err)
	}
	if strings.Contains(string(data), `\u0026`) {
		t.Fatalf("expected unescaped ampersand, got %s", data)
	}
	var alphabet map[string]int
	if err := json.Unmarshal(data, &alphabet); err != nil {
		t.Fatalf("decode alphabet: %v", err)
	}
	want := map[string]int{"&": 1, "a": 2, "b": 3}
	for key, idx := range want {
		if alphabet[key] != idx {
			t.Fatalf("alphabet[%q] = %d, want %d", key, alphabet[key], idx)
		}
	}
}
