// Package history records render outcomes in SQLite.
//
// Every batch run gets a row in runs and every processed entry a row in
// results, so operators can see which tracks were produced when, how long
// they took, and why failures happened. The store is an audit trail only;
// nothing in the render pipeline reads it back to resume work.
//
// Schema changes bump schemaVersion in schema.go; an older database must be
// deleted to adopt the new layout.
package history
