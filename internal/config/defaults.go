package config

const (
	defaultConfigPath        = "~/.config/crnnprep/config.toml"
	projectConfigName        = "crnnprep.toml"
	defaultHistoryPath       = "~/.local/share/crnnprep/history.db"
	defaultAlphabetFile      = "alphabet.json"
	defaultImageExtension    = ".png"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultHistoryEnabled    = true
	defaultDiscoverySort     = true
	defaultCharsetEnabled    = false
	defaultEscapePolicy      = EscapeReject
	defaultCharMode          = CharModeScalar
	defaultNormalization     = NormalizationNone
	defaultMissingTranscript = ErrorPolicyAbort
)

// Escape policies for separator characters found inside a transcription.
const (
	EscapeReject      = "reject"
	EscapeEscape      = "escape"
	EscapeAllowUnsafe = "allow-unsafe"
)

// Character modes for splitting a transcription into manifest tokens.
const (
	CharModeScalar   = "scalar"
	CharModeGrapheme = "grapheme"
)

// Unicode normalization forms applied to transcriptions.
const (
	NormalizationNone = "none"
	NormalizationNFC  = "nfc"
	NormalizationNFD  = "nfd"
)

// Per-item error policies.
const (
	ErrorPolicyAbort = "abort"
	ErrorPolicySkip  = "skip"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Manifest: Manifest{
			EscapePolicy:  defaultEscapePolicy,
			CharMode:      defaultCharMode,
			Normalization: defaultNormalization,
		},
		Discovery: Discovery{
			Extensions: []string{defaultImageExtension},
			Sort:       defaultDiscoverySort,
		},
		Errors: Errors{
			MissingTranscription: defaultMissingTranscript,
		},
		Charset: Charset{
			Enabled:      defaultCharsetEnabled,
			AlphabetFile: defaultAlphabetFile,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
