// Package optimize brings oversized images under a byte budget.
//
// An asset at or under the budget is left alone without being decoded. An
// oversized asset is decoded once, resampled once when a side exceeds the
// dimension cap, and then re-encoded at descending quality until an attempt
// fits. Each attempt goes to a temporary sibling; only a fitting attempt is
// renamed over the original, so a failed search leaves the file untouched.
package optimize
