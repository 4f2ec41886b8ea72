package executor

import (
	"sort"
	"sync"
	"time"

	"github.com/kbukum/flowkit/flow"
)

// Default per-call timeouts.
const (
	TextTimeout  = 60 * time.Second
	MediaTimeout = 5 * time.Minute
)

// DefaultTimeout returns the timeout for a node type when its Spec sets
// none. Media generation and transcription are slower than text.
func DefaultTimeout(t flow.NodeType) time.Duration {
	switch t {
	case flow.TypeImageGeneration, flow.TypeAudioGeneration, flow.TypeTranscription:
		return MediaTimeout
	}
	return TextTimeout
}

// Spec declares how a node type is executed.
type Spec struct {
	Executor Executor
	// Cache is the type's cacheability. The zero value requires a
	// per-node opt-in.
	Cache flow.CachePolicy
	// EmitsPulse makes the engine also record a "done" signal for the node.
	EmitsPulse bool
	// Preview mirrors streamed chunks to preview listeners.
	Preview bool
	// Timeout bounds one Execute call. Zero selects DefaultTimeout.
	Timeout time.Duration
}

// Registry maps node types to their Spec.
type Registry struct {
	mu          sync.RWMutex
	specs       map[flow.NodeType]Spec
	middlewares []Middleware

	textTimeout  time.Duration
	mediaTimeout time.Duration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		specs:        make(map[flow.NodeType]Spec),
		textTimeout:  TextTimeout,
		mediaTimeout: MediaTimeout,
	}
}

// SetDefaultTimeouts replaces the timeouts applied to specs that declare
// none. Non-positive values keep the current setting.
func (r *Registry) SetDefaultTimeouts(text, media time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if text > 0 {
		r.textTimeout = text
	}
	if media > 0 {
		r.mediaTimeout = media
	}
}

// Register sets the Spec for t, replacing any previous one.
func (r *Registry) Register(t flow.NodeType, spec Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[t] = spec
}

// RegisterFunc registers fn for t with the type's default cache policy.
func (r *Registry) RegisterFunc(t flow.NodeType, fn Func) {
	r.Register(t, Spec{Executor: fn, Cache: flow.DefaultCachePolicy(t)})
}

// Use appends middlewares applied to every executor returned by Lookup.
func (r *Registry) Use(mw ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw...)
}

// Lookup returns the Spec for t with middlewares applied and the timeout
// defaulted.
func (r *Registry) Lookup(t flow.NodeType) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[t]
	if !ok {
		return Spec{}, false
	}
	if len(r.middlewares) > 0 && spec.Executor != nil {
		spec.Executor = Chain(r.middlewares...)(spec.Executor)
	}
	if spec.Timeout <= 0 {
		spec.Timeout = r.textTimeout
		if DefaultTimeout(t) == MediaTimeout {
			spec.Timeout = r.mediaTimeout
		}
	}
	return spec, true
}

// Types returns the registered types, sorted.
func (r *Registry) Types() []flow.NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]flow.NodeType, 0, len(r.specs))
	for t := range r.specs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CachePolicy returns the declared policy of t, or flow.DefaultCachePolicy
// for unregistered types.
func (r *Registry) CachePolicy(t flow.NodeType) flow.CachePolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if spec, ok := r.specs[t]; ok {
		return spec.Cache
	}
	return flow.DefaultCachePolicy(t)
}
