// Package crnnconf builds tf-crnn training configurations that point at
// converted manifests.
package crnnconf

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"crnnprep/internal/fileutil"
	"crnnprep/internal/manifest"
)

// TrainingParams mirrors the training_params block of a tf-crnn config.
type TrainingParams struct {
	LearningRate       float64 `json:"learning_rate"`
	LearningDecayRate  float64 `json:"learning_decay_rate"`
	LearningDecaySteps int     `json:"learning_decay_steps"`
	SaveInterval       int     `json:"save_interval"`
	NEpochs            int     `json:"n_epochs"`
	TrainBatchSize     int     `json:"train_batch_size"`
	EvalBatchSize      int     `json:"eval_batch_size"`
}

// Config is a tf-crnn configuration file.
type Config struct {
	TrainingParams       TrainingParams `json:"training_params"`
	InputShape           [2]int         `json:"input_shape"`
	StringSplitDelimiter string         `json:"string_split_delimiter"`
	CSVDelimiter         string         `json:"csv_delimiter"`
	LookupAlphabetFile   string         `json:"lookup_alphabet_file"`
	CSVFilesTrain        []string       `json:"csv_files_train"`
	CSVFilesEval         []string       `json:"csv_files_eval"`
	OutputModelDir       string         `json:"output_model_dir"`
}

// Default returns the stock tf-crnn template with delimiters matching the
// manifests this tool writes.
func Default() Config {
	return Config{
		TrainingParams: TrainingParams{
			LearningRate:       1e-3,
			LearningDecayRate:  0.95,
			LearningDecaySteps: 5000,
			SaveInterval:       1000,
			NEpochs:            50,
			TrainBatchSize:     128,
			EvalBatchSize:      128,
		},
		InputShape:           [2]int{32, 304},
		StringSplitDelimiter: manifest.CharSeparator,
		CSVDelimiter:         manifest.ColumnSeparator,
		LookupAlphabetFile:   "./tf_crnn/data/lookup_letters_digits_symbols.json",
		CSVFilesTrain:        []string{"./my_train_data.csv"},
		CSVFilesEval:         []string{"./my_eval_data.csv"},
		OutputModelDir:       "/.output/",
	}
}

// BuildOptions selects the data a generated config refers to.
type BuildOptions struct {
	TrainDirs []string
	EvalDirs  []string
	// Alphabet overrides the lookup file. When empty, the first alphabet.json
	// found directly inside a train directory is used, else the template value.
	Alphabet       string
	AlphabetName   string
	OutputModelDir string
}

// Build returns Default with manifests and alphabet resolved from opts.
func Build(opts BuildOptions) (Config, error) {
	cfg := Default()

	train, err := collectManifests(opts.TrainDirs)
	if err != nil {
		return Config{}, err
	}
	if len(train) == 0 {
		return Config{}, errors.New("no manifests found in train directories")
	}
	cfg.CSVFilesTrain = train

	eval, err := collectManifests(opts.EvalDirs)
	if err != nil {
		return Config{}, err
	}
	if len(eval) > 0 {
		cfg.CSVFilesEval = eval
	} else {
		cfg.CSVFilesEval = []string{}
	}

	switch {
	case opts.Alphabet != "":
		abs, err := filepath.Abs(opts.Alphabet)
		if err != nil {
			return Config{}, fmt.Errorf("resolve alphabet %s: %w", opts.Alphabet, err)
		}
		cfg.LookupAlphabetFile = abs
	default:
		if found := findAlphabet(opts.TrainDirs, opts.AlphabetName); found != "" {
			cfg.LookupAlphabetFile = found
		}
	}
	if opts.OutputModelDir != "" {
		cfg.OutputModelDir = opts.OutputModelDir
	}
	return cfg, nil
}

// Manifests returns every manifest under dir, sorted.
func Manifests(dir string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	var found []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == manifest.FileName {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find manifests in %s: %w", dir, err)
	}
	sort.Strings(found)
	return found, nil
}

func collectManifests(dirs []string) ([]string, error) {
	var all []string
	for _, dir := range dirs {
		found, err := Manifests(dir)
		if err != nil {
			return nil, err
		}
		all = append(all, found...)
	}
	return all, nil
}

func findAlphabet(dirs []string, name string) string {
	if name == "" {
		return ""
	}
	for _, dir := range dirs {
		candidate, err := filepath.Abs(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
	}
	return ""
}

// Write stores cfg at path as indented JSON.
func Write(path string, cfg Config) error {
	err := fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	})
	if err != nil {
		return fmt.Errorf("write tf-crnn config %s: %w", path, err)
	}
	return nil
}
