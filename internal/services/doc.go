// Package services defines shared utilities consumed by the render pipeline
// stages and their external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, catalog entry IDs, and stage names
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     (configuration, synthesis, concatenation, fade) at the entry boundary.
//   - A CommandRunner abstraction so ffmpeg and edge-tts invocations can be
//     replaced with fakes in tests.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, timeouts) stays uniform across the pipeline.
package services
