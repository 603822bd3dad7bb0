// Package tables implements the BUFR Table B/C/D catalogue and the
// two-tier registry (master-by-version, local-by-version-and-centre) that
// resolves and overlays the effective table set for one message.
//
// The entry types (B, C, D) are plain maps keyed by descriptor; Registry
// owns the master/local maps and materialises an overlay on demand,
// caching the result per (kind, masterVersion, localVersion, centre),
// keyed by an xxhash of that tuple, so that messages repeating the same
// (version, centre) pair do not re-materialise the overlay each time.
package tables
