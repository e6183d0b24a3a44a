// Package mapdetect turns noisy OCR phrases into a map label.
//
// It owns the static objective catalog, the text normalizer, the keyword
// weighted scorer and the confidence gate that decides whether a frame has
// enough readable text to be scored at all. Everything here is pure and
// deterministic: the same phrases always produce the same ranking, and the
// package keeps no state between calls.
//
// Matching is substring based on purpose. A token scores against an objective
// when it appears anywhere inside the lower-cased objective text, so partial
// OCR reads such as "destro" or "kn" still count. Do not tighten this into
// whole-word matching; the keyword weights were tuned against it.
package mapdetect
