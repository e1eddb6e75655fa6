// Package logging configures slog for meditate.
//
// The console handler folds component, entry id, and stage into a readable
// subject prefix; the JSON handler is used for machine output and for the
// persistent log file under the state directory. Context helpers pull run,
// entry, and stage identifiers from a context.Context so pipeline code can log
// with consistent fields.
package logging
