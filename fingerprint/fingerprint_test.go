package fingerprint

import (
	"math"
	"strings"
	"testing"

	"github.com/kbukum/flowkit/flow"
)

func TestSumFormat(t *testing.T) {
	h := Sum("hello")
	if len(h) != 16 {
		t.Fatalf("expected 16 hex chars, got %q", h)
	}
	if Sum("hello") != h {
		t.Error("Sum must be deterministic")
	}
	if Sum("hello!") == h {
		t.Error("different inputs should hash differently")
	}
}

func TestConfigHash(t *testing.T) {
	base := flow.Node{ID: "p", Type: flow.TypePrompt, Config: flow.PromptConfig{Prompt: "hi", Model: "m"}}

	tests := []struct {
		name    string
		node    flow.Node
		changed bool
	}{
		{"same", base, false},
		{"label only", flow.Node{ID: "p", Type: flow.TypePrompt, Label: "Nice", Config: flow.PromptConfig{Prompt: "hi", Model: "m"}}, false},
		{"display field", flow.Node{ID: "p", Type: flow.TypePrompt, Config: flow.PromptConfig{Prompt: "hi", Model: "m", LastOutput: "x"}}, false},
		{"cache flag", flow.Node{ID: "p", Type: flow.TypePrompt, Config: flow.PromptConfig{Prompt: "hi", Model: "m", Cacheable: true}}, false},
		{"prompt", flow.Node{ID: "p", Type: flow.TypePrompt, Config: flow.PromptConfig{Prompt: "hello", Model: "m"}}, true},
		{"model", flow.Node{ID: "p", Type: flow.TypePrompt, Config: flow.PromptConfig{Prompt: "hi", Model: "other"}}, true},
		{"type", flow.Node{ID: "p", Type: "my-prompt", Config: flow.CustomConfig{Values: map[string]any{"prompt": "hi", "model": "m"}}}, true},
	}
	want := ConfigHash(base)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ConfigHash(tc.node)
			if (got != want) != tc.changed {
				t.Errorf("changed=%v, expected %v", got != want, tc.changed)
			}
		})
	}
}

func TestConfigHashNilConfig(t *testing.T) {
	a := ConfigHash(flow.Node{ID: "o", Type: flow.TypeOutput})
	b := ConfigHash(flow.Node{ID: "o", Type: flow.TypeOutput, Config: flow.OutputConfig{}})
	if a != b {
		t.Error("nil config should hash like an empty config")
	}
}

func TestConfigHashUnhashable(t *testing.T) {
	n := flow.Node{ID: "c", Type: "custom", Config: flow.CustomConfig{Values: map[string]any{"x": math.NaN()}}}
	a, b := ConfigHash(n), ConfigHash(n)
	if !strings.HasPrefix(a, "unhashable:c:") {
		t.Fatalf("expected unhashable marker, got %q", a)
	}
	if a == b {
		t.Error("unhashable configs must never hash equal")
	}
	if h, ok := TryConfigHash(n); ok || h != "" {
		t.Errorf("expected failure, got %q ok=%v", h, ok)
	}
	if h, ok := TryConfigHash(flow.Node{ID: "c", Type: flow.TypeCode}); !ok || h != ConfigHash(flow.Node{ID: "c", Type: flow.TypeCode}) {
		t.Errorf("serializable config should hash, got %q ok=%v", h, ok)
	}
}

func TestEdgeHashOrderIndependent(t *testing.T) {
	edges := []flow.Edge{
		{ID: "1", Source: "a", Target: "c"},
		{ID: "2", Source: "b", Target: "c", TargetHandle: "system"},
		{ID: "3", Source: "c", Target: "d"},
	}
	reordered := []flow.Edge{edges[2], edges[1], {ID: "other", Source: "a", Target: "c"}}
	if EdgeHash("c", edges) != EdgeHash("c", reordered) {
		t.Error("edge order and ids must not change the hash")
	}
}

func TestEdgeHashDefaults(t *testing.T) {
	implicit := []flow.Edge{{Source: "a", Target: "c"}}
	explicit := []flow.Edge{{Source: "a", SourceHandle: "output", Target: "c", TargetHandle: "prompt"}}
	if EdgeHash("c", implicit) != EdgeHash("c", explicit) {
		t.Error("defaulted handles should hash like explicit ones")
	}
	rewired := []flow.Edge{{Source: "a", Target: "c", TargetHandle: "system"}}
	if EdgeHash("c", implicit) == EdgeHash("c", rewired) {
		t.Error("changing the target handle must change the hash")
	}
}

func TestEdgeHashOutgoingIgnored(t *testing.T) {
	in := []flow.Edge{{Source: "a", Target: "b"}}
	withOut := append(in, flow.Edge{Source: "b", Target: "c"})
	if EdgeHash("b", in) != EdgeHash("b", withOut) {
		t.Error("outgoing edges must not affect the hash")
	}
}

func TestInputHashes(t *testing.T) {
	a := InputHashes(map[string]string{"prompt": "x", "system": ""})
	b := InputHashes(map[string]string{"prompt": "x", "system": ""})
	if !Equal(a, b) {
		t.Error("identical inputs should be equal")
	}
	if Equal(a, InputHashes(map[string]string{"prompt": "x"})) {
		t.Error("a missing handle must not be equal")
	}
	if Equal(a, InputHashes(map[string]string{"prompt": "y", "system": ""})) {
		t.Error("a changed value must not be equal")
	}
}
