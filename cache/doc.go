// Package cache keeps the last valid result of each node in memory.
//
// An entry is served only when the node's config hash, incoming-edge hash
// and every input hash match what was stored; any single mismatch is a
// miss. Entries are bounded by an estimated byte budget and evicted in
// least-recently-used order. The Manager is safe for concurrent use.
package cache
