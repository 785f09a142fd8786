// Package convert turns Ocropus corpora into CRNN manifests.
//
// A Converter validates the requested source directories, maps each one to a
// target directory (the output root itself for a single source, or
// root/<basename> when several are converted together), and writes one
// groundtruth.csv per target. Per-item failures either abort the run or are
// recorded as skips, depending on Options.SkipItemErrors.
//
// Each source directory owns its manifest and subtree, so directories may be
// converted in parallel; lines within one manifest are always written by a
// single goroutine.
package convert
