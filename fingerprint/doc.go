// Package fingerprint computes the three hashes a cache entry is checked
// against: the node's output-affecting config, the shape of its incoming
// edges, and the values arriving on its input handles.
//
// All hashes are xxhash64 digests of compact JSON, rendered as 16 hex
// characters. Map keys are serialized in sorted order, so hashes do not
// depend on map iteration or on the order of edges in a graph.
package fingerprint
