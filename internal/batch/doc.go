// Package batch renders a selection of catalog entries into finished
// meditation tracks.
//
// Entries are processed strictly one after another. Each entry gets its own
// scratch directory under the configured temp root and passes through the
// build, synthesize, concatenate, probe, fade, and finalize stages. A failure
// at any stage is contained to that entry: it is logged with the entry id,
// recorded in the history store, and the run moves on to the next entry.
//
// Callers observe progress through the Observer interface and receive a
// Summary when the run ends.
package batch
