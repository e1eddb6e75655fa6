// Package staging manages the per-entry scratch directories under the
// configured temp root.
//
// Each catalog entry renders inside <temp_root>/entry_NN. PrepareWorkDir
// clears residue left by an interrupted run before reuse, Remove performs
// best-effort cleanup after the entry finishes, and RemoveIfEmpty drops the
// shared root once a batch leaves nothing behind.
package staging
