package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Manifest controls how transcription content is encoded into manifest lines.
type Manifest struct {
	// EscapePolicy decides what happens when a transcription contains a
	// separator character: "reject", "escape", or "allow-unsafe".
	EscapePolicy string `toml:"escape_policy"`
	// CharMode selects the unit of one manifest token: "scalar" (one Unicode
	// code point) or "grapheme" (one extended grapheme cluster).
	CharMode string `toml:"char_mode"`
	// Normalization optionally rewrites transcriptions to "nfc" or "nfd".
	Normalization string `toml:"normalization"`
}

// Discovery controls how image files are found under a source directory.
type Discovery struct {
	Extensions []string `toml:"extensions"`
	Sort       bool     `toml:"sort"`
}

// Errors controls per-item failure handling.
type Errors struct {
	MissingTranscription string `toml:"missing_transcription"`
}

// Charset controls emission of the lookup alphabet side artifact.
type Charset struct {
	Enabled      bool   `toml:"enabled"`
	AlphabetFile string `toml:"alphabet_file"`
}

// History controls the SQLite run ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for crnnprep.
//
// Configuration sections by subsystem:
//   - Manifest: escape policy, character mode, Unicode normalization
//   - Discovery: image extensions and ordering
//   - Errors: abort or skip when a transcription cannot be used
//   - Charset: lookup alphabet emission
//   - History: run ledger location
//   - Logging: log format and level
type Config struct {
	Manifest  Manifest  `toml:"manifest"`
	Discovery Discovery `toml:"discovery"`
	Errors    Errors    `toml:"errors"`
	Charset   Charset   `toml:"charset"`
	History   History   `toml:"history"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and enum values normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// MissingTranscriptionSkips reports whether per-item failures are skipped
// instead of aborting the run.
func (c *Config) MissingTranscriptionSkips() bool {
	return c.Errors.MissingTranscription == ErrorPolicySkip
}
