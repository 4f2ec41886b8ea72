package fingerprint

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/kbukum/flowkit/flow"
)

// Sum hashes s.
func Sum(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

func sumBytes(b []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}

// ConfigHash hashes the node type together with the cache-relevant fields
// of its config. Fields outside the config's allow-list never affect it.
//
// A config that cannot be serialized yields a value unique to this call,
// so a lookup with it always misses.
func ConfigHash(n flow.Node) string {
	if h, ok := TryConfigHash(n); ok {
		return h
	}
	return "unhashable:" + n.ID + ":" + uuid.NewString()
}

// TryConfigHash is ConfigHash without the fallback: ok is false when the
// cache-relevant fields cannot be serialized.
func TryConfigHash(n flow.Node) (string, bool) {
	fields := map[string]any{}
	if n.Config != nil {
		for k, v := range n.Config.CacheFields() {
			fields[k] = v
		}
	}
	fields["type"] = string(n.Type)

	data, err := json.Marshal(fields)
	if err != nil {
		return "", false
	}
	return sumBytes(data), true
}

type edgeKey struct {
	Source       string `json:"source"`
	SourceHandle string `json:"sourceHandle"`
	TargetHandle string `json:"targetHandle"`
}

// EdgeHash hashes the incoming edges of nodeID as (source, source handle,
// target handle) triples with defaults applied. Edge ids and edge order do
// not contribute.
func EdgeHash(nodeID string, edges []flow.Edge) string {
	keys := make([]edgeKey, 0)
	for _, e := range edges {
		if e.Target != nodeID {
			continue
		}
		keys = append(keys, edgeKey{Source: e.Source, SourceHandle: e.Out(), TargetHandle: e.In()})
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.SourceHandle != b.SourceHandle {
			return a.SourceHandle < b.SourceHandle
		}
		return a.TargetHandle < b.TargetHandle
	})

	// A slice of plain string structs always marshals.
	data, _ := json.Marshal(keys)
	return sumBytes(data)
}

// InputHashes hashes each handle value independently.
func InputHashes(inputs map[string]string) map[string]string {
	out := make(map[string]string, len(inputs))
	for handle, v := range inputs {
		out[handle] = Sum(v)
	}
	return out
}

// Equal reports whether two input-hash maps hold the same handles with the
// same hashes.
func Equal(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}
