// Package tesseract runs the tesseract CLI over an in-memory image and turns
// its TSV word table into recognized phrases.
//
// The image is streamed on stdin as PNG; nothing touches disk. Confidence
// values are truncated to integers and clamped to [0,100], and rows without
// text (page, block and line headers) are skipped.
package tesseract
