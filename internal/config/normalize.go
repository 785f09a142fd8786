package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeManifest()
	c.normalizeDiscovery()
	c.normalizeErrors()
	c.normalizeCharset()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeManifest() {
	c.Manifest.EscapePolicy = strings.ToLower(strings.TrimSpace(c.Manifest.EscapePolicy))
	if c.Manifest.EscapePolicy == "" {
		c.Manifest.EscapePolicy = defaultEscapePolicy
	}
	c.Manifest.CharMode = strings.ToLower(strings.TrimSpace(c.Manifest.CharMode))
	if c.Manifest.CharMode == "" {
		c.Manifest.CharMode = defaultCharMode
	}
	c.Manifest.Normalization = strings.ToLower(strings.TrimSpace(c.Manifest.Normalization))
	if c.Manifest.Normalization == "" {
		c.Manifest.Normalization = defaultNormalization
	}
}

func (c *Config) normalizeDiscovery() {
	exts := make([]string, 0, len(c.Discovery.Extensions))
	seen := make(map[string]struct{}, len(c.Discovery.Extensions))
	for _, ext := range c.Discovery.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = []string{defaultImageExtension}
	}
	c.Discovery.Extensions = exts
}

func (c *Config) normalizeErrors() {
	c.Errors.MissingTranscription = strings.ToLower(strings.TrimSpace(c.Errors.MissingTranscription))
	if c.Errors.MissingTranscription == "" {
		c.Errors.MissingTranscription = defaultMissingTranscript
	}
}

func (c *Config) normalizeCharset() {
	c.Charset.AlphabetFile = strings.TrimSpace(c.Charset.AlphabetFile)
	if c.Charset.AlphabetFile == "" {
		c.Charset.AlphabetFile = defaultAlphabetFile
	}
	c.Charset.AlphabetFile = filepath.Clean(c.Charset.AlphabetFile)
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	if value, ok := os.LookupEnv("CRNNPREP_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
