// Package pipeline runs the convert and optimize stages over one directory.
//
// A run scans the directory, optionally converts legacy formats, then applies
// the size policy to every matching file, one asset at a time. It collects
// one result per asset per stage and folds them into a summary. A file lock
// in the state directory keeps two runs from rewriting the same files.
//
// Cancellation is observed between assets only; the asset in flight always
// finishes so no temp file or half-converted source is left behind.
package pipeline
