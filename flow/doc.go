// Package flow defines the graph snapshot consumed by the execution engine:
// typed nodes, handle-addressed edges, and executor results.
//
// A node's Config is a tagged union keyed by NodeType. Every variant
// publishes, through CacheFields, the exact set of fields that affect its
// output; fields outside that set (labels, positions) never invalidate a
// cached result.
package flow
