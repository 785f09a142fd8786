package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoverOptions controls image discovery.
type DiscoverOptions struct {
	// Extensions lists accepted image suffixes (lowercase, leading dot).
	// Empty means ".png".
	Extensions []string
	// Sort returns paths in lexicographic order instead of walk order.
	Sort bool
}

// Discover walks root recursively and returns every regular file whose
// extension matches opts.Extensions (case-insensitive). Symbolic links to
// files and directories are followed, each real directory is visited once,
// and entries whose name starts with "." are skipped. Paths are joined onto
// root as given, so an absolute root yields absolute paths.
func Discover(root string, opts DiscoverOptions) ([]string, error) {
	extensions := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		extensions[strings.ToLower(ext)] = true
	}
	if len(extensions) == 0 {
		extensions[".png"] = true
	}

	w := &walker{extensions: extensions, visited: make(map[string]bool)}
	if err := w.walk(root); err != nil {
		return nil, err
	}
	if opts.Sort {
		sort.Strings(w.files)
	}
	return w.files, nil
}

type walker struct {
	extensions map[string]bool
	visited    map[string]bool
	files      []string
}

func (w *walker) walk(dir string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if w.visited[resolved] {
		return nil
	}
	w.visited[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		mode := entry.Type()

		if mode&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				// Dangling link.
				continue
			}
			mode = info.Mode().Type()
		}

		switch {
		case mode.IsDir():
			if err := w.walk(path); err != nil {
				return fmt.Errorf("walk %s: %w", path, err)
			}
		case mode.IsRegular():
			if w.extensions[strings.ToLower(filepath.Ext(path))] {
				w.files = append(w.files, path)
			}
		}
	}
	return nil
}
