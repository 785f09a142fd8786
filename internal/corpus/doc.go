// Package corpus reads Ocropus-style training corpora: directory trees of line
// images, each paired with a sibling ground-truth transcription.
//
// An image named "page01.bin.png" pairs with "page01.gt.txt": the binarization
// marker ".bin" is dropped, the image suffix is replaced by ".gt.txt", and the
// directory is preserved. Discover finds the images, TranscriptionPath derives
// the companion file, and ReadTranscription loads its trimmed content.
package corpus
