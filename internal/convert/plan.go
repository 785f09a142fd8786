package convert

import (
	"errors"
	"fmt"
	"path/filepath"

	"crnnprep/internal/corpus"
)

// ErrDuplicateTarget reports two source directories that would share a target.
var ErrDuplicateTarget = errors.New("source directories map to the same target")

// TargetDirectory returns where the manifest for source goes. A single source
// is flattened into root; several sources are namespaced by base name.
func TargetDirectory(source, root string, multi bool) string {
	if !multi {
		return root
	}
	return filepath.Join(root, filepath.Base(filepath.Clean(source)))
}

// Plan validates sources and computes one Job per source, in the order given.
// Nothing is written to disk.
func Plan(sources []string, root string) ([]Job, error) {
	if len(sources) == 0 {
		return nil, errors.New("at least one source directory is required")
	}
	if root == "" {
		return nil, errors.New("target directory is required")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve target directory %s: %w", root, err)
	}

	multi := len(sources) > 1
	jobs := make([]Job, 0, len(sources))
	seen := make(map[string]string, len(sources))
	for _, source := range sources {
		if err := corpus.CheckSourceDirectory(source); err != nil {
			return nil, err
		}
		absSource, err := filepath.Abs(source)
		if err != nil {
			return nil, fmt.Errorf("resolve source directory %s: %w", source, err)
		}
		target := TargetDirectory(absSource, absRoot, multi)
		if prev, ok := seen[target]; ok {
			return nil, fmt.Errorf("%w: %s and %s both write %s", ErrDuplicateTarget, prev, source, target)
		}
		seen[target] = source
		jobs = append(jobs, Job{Source: absSource, Target: target, CreateTarget: multi})
	}
	return jobs, nil
}
