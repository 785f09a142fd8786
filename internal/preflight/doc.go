// Package preflight provides readiness checks for the directories and files
// a conversion depends on.
//
// The CLI "crnnprep check" command runs them to report, without writing
// anything, whether sources are readable, whether the output root and history
// database can be created, and how many images lack a transcription.
package preflight
