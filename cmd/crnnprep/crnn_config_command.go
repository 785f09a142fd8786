package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"crnnprep/internal/crnnconf"
)

func newCRNNConfigCommand(ctx *commandContext) *cobra.Command {
	var (
		trainDirs []string
		evalDirs  []string
		alphabet  string
		modelDir  string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "crnn-config",
		Short: "Write a tf-crnn training configuration for converted manifests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(trainDirs) == 0 {
				return fmt.Errorf("--train is required")
			}
			built, err := crnnconf.Build(crnnconf.BuildOptions{
				TrainDirs:      trainDirs,
				EvalDirs:       evalDirs,
				Alphabet:       strings.TrimSpace(alphabet),
				AlphabetName:   cfg.Charset.AlphabetFile,
				OutputModelDir: strings.TrimSpace(modelDir),
			})
			if err != nil {
				return err
			}
			target, err := filepath.Abs(outPath)
			if err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}
			if err := crnnconf.Write(target, built); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote tf-crnn configuration to %s\n", target)
			printDetail(out, "%d training manifest(s), %d evaluation manifest(s)", len(built.CSVFilesTrain), len(built.CSVFilesEval))
			printDetail(out, "Lookup alphabet: %s", built.LookupAlphabetFile)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&trainDirs, "train", nil, "Directory holding training manifests (repeatable)")
	cmd.Flags().StringSliceVar(&evalDirs, "eval", nil, "Directory holding evaluation manifests (repeatable)")
	cmd.Flags().StringVar(&alphabet, "alphabet", "", "Lookup alphabet file (defaults to the alphabet found in the first train directory)")
	cmd.Flags().StringVar(&modelDir, "model-dir", "", "Directory tf-crnn writes the model to")
	cmd.Flags().StringVar(&outPath, "out", "tf-crnn-config.json", "Destination of the generated configuration")
	return cmd
}
