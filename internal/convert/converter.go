package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"crnnprep/internal/corpus"
	"crnnprep/internal/logging"
	"crnnprep/internal/manifest"
)

// Hooks receive progress notifications. With more than one worker they may be
// called from several goroutines at once.
type Hooks struct {
	DirectoryStarted  func(job Job, images int)
	ItemDone          func(job Job)
	DirectoryFinished func(result DirectoryResult)
}

// Options configures a Converter.
type Options struct {
	Encoder       manifest.Encoder
	Normalization corpus.Normalization
	Discovery     corpus.DiscoverOptions
	// SkipItemErrors records unusable image pairs and continues instead of
	// aborting on the first one.
	SkipItemErrors bool
	// Workers bounds how many source directories are converted at once.
	// Values below 1 mean 1.
	Workers int
	// CollectCharacters fills Summary.Characters with every token written.
	CollectCharacters bool
	Hooks             Hooks
}

// Converter writes manifests for Ocropus source directories.
type Converter struct {
	opts   Options
	logger *slog.Logger
}

// New returns a Converter. A nil logger discards output.
func New(opts Options, logger *slog.Logger) *Converter {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Converter{opts: opts, logger: logging.NewComponentLogger(logger, "convert")}
}

// Run validates sources, prepares root, and converts every source directory.
// Under the abort policy the first failure stops the run; the returned Summary
// still lists the directories completed before it.
func (c *Converter) Run(ctx context.Context, sources []string, root string) (Summary, error) {
	jobs, err := Plan(sources, root)
	if err != nil {
		return Summary{}, err
	}

	runID, ok := logging.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = logging.WithRunID(ctx, runID)
	}
	summary := Summary{RunID: runID, TargetRoot: root}
	if c.opts.CollectCharacters {
		summary.Characters = manifest.NewCharacterSet()
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return summary, fmt.Errorf("create target directory %s: %w", root, err)
	}

	logger := logging.WithContext(ctx, c.logger)
	logger.Info("conversion started",
		logging.Int("directories", len(jobs)),
		logging.String("target", root),
		logging.Int("workers", c.opts.Workers),
	)
	started := time.Now()

	results, err := c.runJobs(ctx, jobs, summary.Characters)
	summary.Directories = results
	if err != nil {
		logging.ErrorWithContext(logger, "conversion aborted", "conversion_aborted",
			logging.Error(err),
			logging.Int("lines", summary.TotalLines()),
			logging.String(logging.FieldErrorHint, "fix the reported image pair or rerun with --on-missing skip"),
		)
		return summary, err
	}

	logger.Info("conversion finished",
		logging.Int("directories", len(results)),
		logging.Int("lines", summary.TotalLines()),
		logging.Int("skipped", summary.TotalSkipped()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return summary, nil
}

func (c *Converter) runJobs(ctx context.Context, jobs []Job, chars *manifest.CharacterSet) ([]DirectoryResult, error) {
	if c.opts.Workers == 1 || len(jobs) == 1 {
		results := make([]DirectoryResult, 0, len(jobs))
		for _, job := range jobs {
			result, err := c.ConvertDirectory(ctx, job, chars)
			if err != nil {
				return results, err
			}
			results = append(results, result)
		}
		return results, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		done     = make([]bool, len(jobs))
		results  = make([]DirectoryResult, len(jobs))
		sem      = make(chan struct{}, c.opts.Workers)
	)
	for i, job := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			result, err := c.ConvertDirectory(ctx, job, chars)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil || (errors.Is(firstErr, context.Canceled) && !errors.Is(err, context.Canceled)) {
					firstErr = err
				}
				cancel()
				return
			}
			results[i] = result
			done[i] = true
		}()
	}
	wg.Wait()

	completed := make([]DirectoryResult, 0, len(jobs))
	for i := range jobs {
		if done[i] {
			completed = append(completed, results[i])
		}
	}
	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	return completed, firstErr
}

// ConvertDirectory writes the manifest for one job. Tokens written are added
// to chars when it is non-nil.
func (c *Converter) ConvertDirectory(ctx context.Context, job Job, chars *manifest.CharacterSet) (result DirectoryResult, err error) {
	started := time.Now()
	ctx = logging.WithSource(ctx, job.Source)
	logger := logging.WithContext(ctx, c.logger)
	result = DirectoryResult{Source: job.Source, Target: job.Target}

	if job.CreateTarget {
		if err := os.MkdirAll(job.Target, 0o755); err != nil {
			return result, fmt.Errorf("create target directory %s: %w", job.Target, err)
		}
	}

	writer, err := manifest.Create(job.Target)
	if err != nil {
		return result, err
	}
	result.Manifest = writer.Path()
	defer func() {
		result.Lines = writer.Lines()
		result.Elapsed = time.Since(started)
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	images, err := corpus.Discover(job.Source, c.opts.Discovery)
	if err != nil {
		return result, fmt.Errorf("discover images in %s: %w", job.Source, err)
	}
	result.Images = len(images)
	logger.Debug("images discovered", logging.Int("images", len(images)))
	if c.opts.Hooks.DirectoryStarted != nil {
		c.opts.Hooks.DirectoryStarted(job, len(images))
	}

	var local *manifest.CharacterSet
	if chars != nil {
		local = manifest.NewCharacterSet()
	}

	for _, image := range images {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		line, tokens, itemErr := c.encodeImage(image)
		if itemErr != nil {
			if !c.opts.SkipItemErrors {
				return result, itemErr
			}
			result.Skipped = append(result.Skipped, Skip{Image: itemErr.Image, Transcription: itemErr.Transcription, Err: itemErr.Err})
			logging.WarnWithContext(logger, "image skipped", "image_skipped",
				logging.String("image", itemErr.Image),
				logging.String("transcription", itemErr.Transcription),
				logging.Error(itemErr.Err),
				logging.String(logging.FieldErrorHint, "add or fix the .gt.txt file next to the image"),
				logging.String(logging.FieldImpact, "image left out of the manifest"),
			)
		} else {
			if err := writer.Append(line); err != nil {
				return result, err
			}
			if local != nil {
				local.Add(tokens...)
			}
		}
		if c.opts.Hooks.ItemDone != nil {
			c.opts.Hooks.ItemDone(job)
		}
	}

	if chars != nil {
		chars.Merge(local)
	}

	logger.Info("manifest written",
		logging.String("manifest", writer.Path()),
		logging.Int("lines", writer.Lines()),
		logging.Int("skipped", len(result.Skipped)),
		logging.Duration("elapsed", time.Since(started)),
	)
	if c.opts.Hooks.DirectoryFinished != nil {
		finished := result
		finished.Lines = writer.Lines()
		finished.Elapsed = time.Since(started)
		c.opts.Hooks.DirectoryFinished(finished)
	}
	return result, nil
}

func (c *Converter) encodeImage(image string) (string, []string, *ItemError) {
	transcription, err := corpus.TranscriptionPath(image)
	if err != nil {
		return "", nil, &ItemError{Image: image, Err: err}
	}
	content, err := corpus.ReadTranscription(transcription, c.opts.Normalization)
	if err != nil {
		return "", nil, &ItemError{Image: image, Transcription: transcription, Err: err}
	}
	line, tokens, err := c.opts.Encoder.EncodeTokens(image, content)
	if err != nil {
		return "", nil, &ItemError{Image: image, Transcription: transcription, Err: err}
	}
	return line, tokens, nil
}
