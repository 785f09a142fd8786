package crnnconf_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"crnnprep/internal/crnnconf"
	"crnnprep/internal/testsupport"
)

func TestDefaultMatchesTemplate(t *testing.T) {
	cfg := crnnconf.Default()
	if cfg.InputShape != [2]int{32, 304} {
		t.Fatalf("InputShape = %v", cfg.InputShape)
	}
	if cfg.StringSplitDelimiter != "|" || cfg.CSVDelimiter != ";" {
		t.Fatalf("delimiters = %q %q", cfg.StringSplitDelimiter, cfg.CSVDelimiter)
	}
	if cfg.TrainingParams.NEpochs != 50 || cfg.TrainingParams.LearningDecaySteps != 5000 {
		t.Fatalf("unexpected training params: %+v", cfg.TrainingParams)
	}
}

func TestBuildFindsManifestsAndAlphabet(t *testing.T) {
	train := t.TempDir()
	eval := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(train, "A", "groundtruth.csv"), nil)
	testsupport.WriteFile(t, filepath.Join(train, "B", "groundtruth.csv"), nil)
	testsupport.WriteFile(t, filepath.Join(train, "alphabet.json"), []byte("{}"))
	testsupport.WriteFile(t, filepath.Join(eval, "groundtruth.csv"), nil)

	cfg, err := crnnconf.Build(crnnconf.BuildOptions{
		TrainDirs:    []string{train},
		EvalDirs:     []string{eval},
		AlphabetName: "alphabet.json",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	wantTrain := []string{
		filepath.Join(train, "A", "groundtruth.csv"),
		filepath.Join(train, "B", "groundtruth.csv"),
	}
	if len(cfg.CSVFilesTrain) != 2 || cfg.CSVFilesTrain[0] != wantTrain[0] || cfg.CSVFilesTrain[1] != wantTrain[1] {
		t.Fatalf("CSVFilesTrain = %q, want %q", cfg.CSVFilesTrain, wantTrain)
	}
	if len(cfg.CSVFilesEval) != 1 {
		t.Fatalf("CSVFilesEval = %q", cfg.CSVFilesEval)
	}
	if cfg.LookupAlphabetFile != filepath.Join(train, "alphabet.json") {
		t.Fatalf("LookupAlphabetFile = %q", cfg.LookupAlphabetFile)
	}
}

func TestBuildRequiresTrainManifests(t *testing.T) {
	if _, err := crnnconf.Build(crnnconf.BuildOptions{TrainDirs: []string{t.TempDir()}}); err == nil {
		t.Fatal("expected error for empty train directory")
	}
}

func TestWriteProducesTemplateKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "tf-crnn.json")
	if err := crnnconf.Write(path, crnnconf.Default()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"training_params", "input_shape", "string_split_delimiter", "csv_delimiter", "lookup_alphabet_file", "csv_files_train", "csv_files_eval", "output_model_dir"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing key %q in %s", key, data)
		}
	}
	params := decoded["training_params"].(map[string]any)
	if params["learning_rate"] != 0.001 {
		t.Fatalf("learning_rate = %v", params["learning_rate"])
	}
}
