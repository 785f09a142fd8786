package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateManifest(); err != nil {
		return err
	}
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	if err := c.validateErrors(); err != nil {
		return err
	}
	if err := c.validateCharset(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateManifest() error {
	switch c.Manifest.EscapePolicy {
	case EscapeReject, EscapeEscape, EscapeAllowUnsafe:
	default:
		return fmt.Errorf("manifest.escape_policy: unsupported value %q (want %s, %s, or %s)",
			c.Manifest.EscapePolicy, EscapeReject, EscapeEscape, EscapeAllowUnsafe)
	}
	switch c.Manifest.CharMode {
	case CharModeScalar, CharModeGrapheme:
	default:
		return fmt.Errorf("manifest.char_mode: unsupported value %q (want %s or %s)",
			c.Manifest.CharMode, CharModeScalar, CharModeGrapheme)
	}
	switch c.Manifest.Normalization {
	case NormalizationNone, NormalizationNFC, NormalizationNFD:
	default:
		return fmt.Errorf("manifest.normalization: unsupported value %q", c.Manifest.Normalization)
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	for _, ext := range c.Discovery.Extensions {
		if ext == "." || strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("discovery.extensions: invalid extension %q", ext)
		}
	}
	return nil
}

func (c *Config) validateErrors() error {
	switch c.Errors.MissingTranscription {
	case ErrorPolicyAbort, ErrorPolicySkip:
		return nil
	default:
		return fmt.Errorf("errors.missing_transcription: unsupported value %q (want %s or %s)",
			c.Errors.MissingTranscription, ErrorPolicyAbort, ErrorPolicySkip)
	}
}

func (c *Config) validateCharset() error {
	if filepath.IsAbs(c.Charset.AlphabetFile) {
		return errors.New("charset.alphabet_file must be relative to the output directory")
	}
	if strings.HasPrefix(c.Charset.AlphabetFile, "..") {
		return errors.New("charset.alphabet_file must stay inside the output directory")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.New("history.path must be set when history.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
