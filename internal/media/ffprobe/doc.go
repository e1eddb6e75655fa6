// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: runs ffprobe with a per-call timeout and an injectable runner
//
// The render pipeline uses Prober.Duration to measure a concatenated track
// before placing its fade-out, since text-length estimates drift from the
// real synthesized length.
package ffprobe
