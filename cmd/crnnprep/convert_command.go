package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"crnnprep/internal/config"
	"crnnprep/internal/convert"
	"crnnprep/internal/corpus"
	"crnnprep/internal/history"
	"crnnprep/internal/logging"
	"crnnprep/internal/manifest"
)

const defaultOutputDir = "./output"

type convertFlags struct {
	output        string
	workers       int
	onMissing     string
	escape        string
	charMode      string
	normalization string
	charset       bool
	noHistory     bool
	noProgress    bool
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "convert DIR...",
		Short: "Write groundtruth.csv manifests for Ocropus training directories",
		Long: "Convert one or more Ocropus training directories into tf-crnn manifests.\n\n" +
			"A single directory is written to OUTPUT/groundtruth.csv; several directories\n" +
			"are written to OUTPUT/<name>/groundtruth.csv each.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			effective, err := flags.apply(cmd, cfg)
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runConvert(cmd, effective, flags, args, logger)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", defaultOutputDir, "Target directory in which to save the new data")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 1, "Number of source directories converted in parallel")
	cmd.Flags().StringVar(&flags.onMissing, "on-missing", "", "Per-image failure policy: abort or skip (default from config)")
	cmd.Flags().StringVar(&flags.escape, "escape", "", "Separator policy: reject, escape, or allow-unsafe (default from config)")
	cmd.Flags().StringVar(&flags.charMode, "char-mode", "", "Token unit: scalar or grapheme (default from config)")
	cmd.Flags().StringVar(&flags.normalization, "normalize", "", "Unicode normalization: none, nfc, or nfd (default from config)")
	cmd.Flags().BoolVar(&flags.charset, "charset", false, "Write the lookup alphabet next to the manifests")
	cmd.Flags().BoolVar(&flags.noHistory, "no-history", false, "Do not record this run in the history database")
	cmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "Disable progress bars")
	return cmd
}

// apply returns a copy of cfg with command-line overrides applied and validated.
func (f convertFlags) apply(cmd *cobra.Command, cfg *config.Config) (*config.Config, error) {
	effective := *cfg
	lower := func(value string) string { return strings.ToLower(strings.TrimSpace(value)) }

	if cmd.Flags().Changed("on-missing") {
		effective.Errors.MissingTranscription = lower(f.onMissing)
	}
	if cmd.Flags().Changed("escape") {
		effective.Manifest.EscapePolicy = lower(f.escape)
	}
	if cmd.Flags().Changed("char-mode") {
		effective.Manifest.CharMode = lower(f.charMode)
	}
	if cmd.Flags().Changed("normalize") {
		effective.Manifest.Normalization = lower(f.normalization)
	}
	if f.charset {
		effective.Charset.Enabled = true
	}
	if f.noHistory {
		effective.History.Enabled = false
	}
	if f.workers < 1 {
		return nil, fmt.Errorf("--workers must be at least 1, got %d", f.workers)
	}
	if strings.TrimSpace(f.output) == "" {
		return nil, errors.New("--output must not be empty")
	}
	if err := effective.Validate(); err != nil {
		return nil, err
	}
	return &effective, nil
}

func converterOptions(cfg *config.Config, workers int) convert.Options {
	return convert.Options{
		Encoder: manifest.Encoder{
			Escape: manifest.EscapePolicy(cfg.Manifest.EscapePolicy),
			Mode:   manifest.CharMode(cfg.Manifest.CharMode),
		},
		Normalization: corpus.Normalization(cfg.Manifest.Normalization),
		Discovery: corpus.DiscoverOptions{
			Extensions: cfg.Discovery.Extensions,
			Sort:       cfg.Discovery.Sort,
		},
		SkipItemErrors:    cfg.MissingTranscriptionSkips(),
		Workers:           workers,
		CollectCharacters: cfg.Charset.Enabled,
	}
}

func runConvert(cmd *cobra.Command, cfg *config.Config, flags convertFlags, sources []string, logger *slog.Logger) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	printSection(out, "Checking input arguments:")
	if _, err := convert.Plan(sources, flags.output); err != nil {
		return err
	}
	printDetail(out, "Arguments are valid.")

	runID := uuid.NewString()
	baseCtx := cmd.Context()
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	runCtx, stop := signal.NotifyContext(logging.WithRunID(baseCtx, runID), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printSection(out, "Transforming data")
	opts := converterOptions(cfg, flags.workers)
	reporter := newConvertReporter(out, colorize && !flags.noProgress && flags.workers == 1)
	opts.Hooks = reporter.hooks()

	started := time.Now()
	summary, runErr := convert.New(opts, logger).Run(runCtx, sources, flags.output)
	finished := time.Now()
	reporter.close()

	if cfg.History.Enabled {
		recordHistory(context.WithoutCancel(runCtx), cfg.History.Path, summary, started, finished, runErr, logger)
	}
	if runErr != nil {
		return runErr
	}

	printSection(out, "Saving the characters found")
	if cfg.Charset.Enabled && summary.Characters != nil {
		alphabetPath := filepath.Join(flags.output, cfg.Charset.AlphabetFile)
		if err := summary.Characters.WriteAlphabet(alphabetPath); err != nil {
			return err
		}
		printDetail(out, "%s characters saved to %s", humanize.Comma(int64(summary.Characters.Len())), alphabetPath)
	} else {
		printDetail(out, "Character set not requested (use --charset).")
	}

	printConvertSummary(out, summary, colorize)
	return nil
}

func printConvertSummary(out io.Writer, summary convert.Summary, colorize bool) {
	fmt.Fprintln(out, separatorLine)
	rows := make([][]string, 0, len(summary.Directories))
	for _, dir := range summary.Directories {
		rows = append(rows, []string{
			dir.Source,
			dir.Manifest,
			humanize.Comma(int64(dir.Images)),
			humanize.Comma(int64(dir.Lines)),
			strconv.Itoa(len(dir.Skipped)),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Source", "Manifest", "Images", "Lines", "Skipped"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))

	kind := statusOK
	message := fmt.Sprintf("%s lines in %d manifest(s)", humanize.Comma(int64(summary.TotalLines())), len(summary.Directories))
	if skipped := summary.TotalSkipped(); skipped > 0 {
		kind = statusWarn
		message += fmt.Sprintf(", %d image(s) skipped", skipped)
	}
	fmt.Fprintln(out, renderStatusLine("Result", kind, message, colorize))
	fmt.Fprintln(out, renderStatusLine("Run", statusInfo, summary.RunID, colorize))
}

func recordHistory(ctx context.Context, path string, summary convert.Summary, started, finished time.Time, runErr error, logger *slog.Logger) {
	store, err := history.Open(ctx, path)
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check [history] path or run with --no-history"),
			logging.String(logging.FieldImpact, "run not recorded"),
		)
		return
	}
	defer store.Close()

	run := history.Run{
		ID:         summary.RunID,
		StartedAt:  started,
		FinishedAt: finished,
		TargetRoot: summary.TargetRoot,
		Status:     history.StatusSucceeded,
		Lines:      summary.TotalLines(),
		Skipped:    summary.TotalSkipped(),
	}
	if run.ID == "" {
		// Validation failed before the converter assigned an id.
		if id, ok := logging.RunIDFromContext(ctx); ok {
			run.ID = id
		}
	}
	if runErr != nil {
		run.Status = history.StatusFailed
		run.ErrorMessage = runErr.Error()
	}
	for _, dir := range summary.Directories {
		run.Directories = append(run.Directories, history.Directory{
			Source:   dir.Source,
			Target:   dir.Target,
			Manifest: dir.Manifest,
			Lines:    dir.Lines,
			Skipped:  len(dir.Skipped),
		})
	}

	if err := store.RecordRun(ctx, run); err != nil {
		logging.WarnWithContext(logger, "history write failed", "history_write_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run not recorded"),
		)
	}
}

// convertReporter prints per-directory progress. Hooks may fire from several
// workers, so output is serialized.
type convertReporter struct {
	out         io.Writer
	useProgress bool

	mu   sync.Mutex
	bars map[string]*progressbar.ProgressBar
}

func newConvertReporter(out io.Writer, useProgress bool) *convertReporter {
	return &convertReporter{out: out, useProgress: useProgress, bars: make(map[string]*progressbar.ProgressBar)}
}

func (r *convertReporter) hooks() convert.Hooks {
	return convert.Hooks{
		DirectoryStarted:  r.directoryStarted,
		ItemDone:          r.itemDone,
		DirectoryFinished: r.directoryFinished,
	}
}

func (r *convertReporter) directoryStarted(job convert.Job, images int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	printDetail(r.out, "Transforming %s's data into %s's data", job.Source, job.Target)
	if bar := newItemProgress(r.out, images, filepath.Base(job.Source), r.useProgress); bar != nil {
		r.bars[job.Source] = bar
	}
}

func (r *convertReporter) itemDone(job convert.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bar := r.bars[job.Source]; bar != nil {
		_ = bar.Add(1)
	}
}

func (r *convertReporter) directoryFinished(result convert.DirectoryResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bar := r.bars[result.Source]; bar != nil {
		_ = bar.Finish()
		delete(r.bars, result.Source)
	}
	printDetail(r.out, "%s lines referenced in %s", humanize.Comma(int64(result.Lines)), result.Manifest)
	for _, skip := range result.Skipped {
		printDetail(r.out, "skipped %s: %v", skip.Image, skip.Err)
	}
}

// close clears bars left by a directory that aborted mid-way.
func (r *convertReporter) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for source, bar := range r.bars {
		_ = bar.Exit()
		delete(r.bars, source)
	}
}
