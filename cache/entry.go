package cache

import (
	"time"
	"unicode/utf16"

	"github.com/kbukum/flowkit/flow"
)

// EntryOverhead is the fixed per-entry cost added to the string payload.
const EntryOverhead = 256

// MissReason classifies why a lookup did not produce a result.
type MissReason string

const (
	MissNotFound      MissReason = "not_found"
	MissConfigChanged MissReason = "config_changed"
	MissEdgesChanged  MissReason = "edges_changed"
	MissInputsChanged MissReason = "inputs_changed"
	MissNotCacheable  MissReason = "not_cacheable"
)

// Entry is a stored result with the fingerprints it is valid for.
type Entry struct {
	ConfigHash  string            `json:"configHash"`
	EdgeHash    string            `json:"edgeHash"`
	InputHashes map[string]string `json:"inputHashes"`
	Result      flow.Result       `json:"result"`
	CachedAt    time.Time         `json:"cachedAt"`
	SizeBytes   int64             `json:"sizeBytes"`
}

// EstimateSize approximates the memory held by r: two bytes per UTF-16
// code unit of every string field plus EntryOverhead.
func EstimateSize(r flow.Result) int64 {
	var units int64
	for _, s := range r.Strings() {
		for _, c := range s {
			units += int64(utf16.RuneLen(c))
		}
	}
	return units*2 + EntryOverhead
}
