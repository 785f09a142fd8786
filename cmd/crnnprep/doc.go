// Package main hosts the crnnprep CLI entrypoint and command graph.
//
// The Cobra command tree validates source directories, drives the converter,
// records run history, and scaffolds configuration. Conversion logic lives in
// internal/convert; this package only resolves configuration, wires loggers
// and progress output, and renders results for the terminal.
package main
