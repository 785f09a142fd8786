// Package manifest writes CRNN training manifests.
//
// A manifest is a plain UTF-8 file named groundtruth.csv holding one line per
// image pair:
//
//	/abs/path/page01.png;|h|e|l|l|o
//
// The image path and the transcription are separated by ";" and every
// transcription character is preceded by "|". Encoder builds lines, Writer owns
// one manifest file for the lifetime of a source directory, and CharacterSet
// collects the distinct characters seen so a lookup alphabet can be emitted.
package manifest
