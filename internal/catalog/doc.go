// Package catalog holds the fixed set of herbs that meditate renders.
//
// The catalog ships as an embedded YAML document and is parsed once per
// process; an alternate document can be supplied through configuration.
// Entries are plain values and are never mutated after loading. Selection
// resolves either an inclusive id range or an exact display-name match into
// an ordered list of entries for the batch renderer.
package catalog
