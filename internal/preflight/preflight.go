package preflight

import (
	"path/filepath"

	"crnnprep/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check applicable to converting sources into output.
func RunAll(cfg *config.Config, sources []string, output string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, source := range sources {
		name := "Source " + filepath.Base(filepath.Clean(source))
		result := CheckSourceDirectory(name, source)
		results = append(results, result)
		if result.Passed {
			results = append(results, CheckTranscriptions("Pairs "+filepath.Base(filepath.Clean(source)), source, cfg.Discovery.Extensions))
		}
	}

	results = append(results, CheckWritableTarget("Output", output))

	if cfg.History.Enabled {
		results = append(results, CheckWritableTarget("History", filepath.Dir(cfg.History.Path)))
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
