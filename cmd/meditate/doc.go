// Package main hosts the meditate CLI entrypoint and command graph.
//
// The Cobra-based command tree renders guided-meditation tracks from the
// herb catalog, browses the catalog and its generated scripts, scaffolds
// configuration, reports external tool readiness, and lists render history.
// Configuration resolution and logger setup live here so the internal
// packages stay free of terminal concerns.
package main
