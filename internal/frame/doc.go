// Package frame reads a captured frame, crops the objective overlay, runs OCR
// on it and hands the recognized phrases to mapdetect.
//
// The crop is proportional: the in-game objective banner sits at a fixed
// fraction of the screen, so the same Region works for 720p and 4K captures.
// PNG, JPEG, GIF, BMP, TIFF and WebP frames decode through the image registry.
package frame
