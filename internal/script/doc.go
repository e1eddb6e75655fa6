// Package script turns a catalog entry into the ordered narration for one
// guided meditation.
//
// A Script is a sequence of segments, each a spoken line with a trailing
// pause or a pure pause. Build is deterministic: the same entry always yields
// the same segments. Season-specific greetings and closings come from fixed
// lookup tables.
package script
