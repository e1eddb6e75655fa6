// Package preflight provides readiness checks for the external tools and
// filesystem paths that meditate depends on.
//
// These checks run in two contexts:
//   - The render command calls RunAll before the first entry. If any check
//     fails, the run stops before any audio is synthesized.
//   - The "meditate deps" command prints every result for inspection.
//
// Checks are independent and run concurrently; results keep a stable order.
package preflight
