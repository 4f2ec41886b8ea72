package cache

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/kbukum/flowkit/fingerprint"
	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
)

// DefaultMaxBytes is the budget used when none is configured.
const DefaultMaxBytes int64 = 100 << 20

// PolicyFunc returns the cache policy of a node type.
type PolicyFunc func(flow.NodeType) flow.CachePolicy

// Stats is a snapshot of the manager's counters.
type Stats struct {
	Hits        int64                `json:"hits"`
	Misses      int64                `json:"misses"`
	MissReasons map[MissReason]int64 `json:"missReasons"`
	Evictions   int64                `json:"evictions"`
	Rejected    int64                `json:"rejected"`
	EntryCount  int                  `json:"entryCount"`
	TotalBytes  int64                `json:"totalBytes"`
	MaxBytes    int64                `json:"maxBytes"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithPolicy replaces flow.DefaultCachePolicy as the source of per-type
// cacheability.
func WithPolicy(p PolicyFunc) Option {
	return func(m *Manager) { m.policy = p }
}

// WithClock sets the time source for CachedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithMetrics records lookups, evictions and size on m.
func WithMetrics(metrics *observability.EngineMetrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithLogger sets the logger used for eviction and rejection events.
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// Manager is a byte-budgeted LRU of node results keyed by node id.
type Manager struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[string, *Entry]
	maxBytes int64
	bytes    int64

	hits      int64
	misses    int64
	reasons   map[MissReason]int64
	evictions int64
	rejected  int64

	policy  PolicyFunc
	now     func() time.Time
	metrics *observability.EngineMetrics
	log     *logger.Logger
}

// New creates a Manager holding at most maxBytes of estimated result
// size. A non-positive maxBytes selects DefaultMaxBytes.
func New(maxBytes int64, opts ...Option) *Manager {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	// Only the byte budget bounds the cache; the entry limit is never reached.
	lru, _ := simplelru.NewLRU[string, *Entry](math.MaxInt32, nil)
	m := &Manager{
		lru:      lru,
		maxBytes: maxBytes,
		reasons:  make(map[MissReason]int64),
		policy:   flow.DefaultCachePolicy,
		now:      time.Now,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) cacheable(n flow.Node) bool {
	switch m.policy(n.Type) {
	case flow.CacheNever:
		return false
	case flow.CacheImplicit:
		return true
	default:
		return n.CacheEnabled()
	}
}

// Cacheable reports whether results of n may be stored and served.
func (m *Manager) Cacheable(n flow.Node) bool { return m.cacheable(n) }

// Get returns the stored result for n when it is still valid for the
// node's current config, incoming edges and the values its handles
// resolve to in upstream.
func (m *Manager) Get(n flow.Node, edges []flow.Edge, upstream map[string]string) (flow.Result, MissReason, bool) {
	return m.Lookup(n, edges, flow.ResolveInputs(n.ID, edges, upstream))
}

// Lookup is Get with the node's inputs already resolved.
func (m *Manager) Lookup(n flow.Node, edges []flow.Edge, inputs map[string]string) (flow.Result, MissReason, bool) {
	if !m.cacheable(n) {
		return m.miss(MissNotCacheable)
	}

	configHash := fingerprint.ConfigHash(n)
	edgeHash := fingerprint.EdgeHash(n.ID, edges)
	inputHashes := fingerprint.InputHashes(inputs)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lru.Peek(n.ID)
	var reason MissReason
	switch {
	case !ok:
		reason = MissNotFound
	case e.ConfigHash != configHash:
		reason = MissConfigChanged
	case e.EdgeHash != edgeHash:
		reason = MissEdgesChanged
	case !fingerprint.Equal(e.InputHashes, inputHashes):
		reason = MissInputsChanged
	}
	if reason != "" {
		return m.missLocked(reason)
	}

	m.lru.Get(n.ID)
	e.CachedAt = m.now()
	m.hits++
	m.metrics.RecordCacheLookup(context.Background(), true, "")
	return e.Result.Clone(), "", true
}

func (m *Manager) miss(reason MissReason) (flow.Result, MissReason, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.missLocked(reason)
}

func (m *Manager) missLocked(reason MissReason) (flow.Result, MissReason, bool) {
	m.misses++
	m.reasons[reason]++
	m.metrics.RecordCacheLookup(context.Background(), false, string(reason))
	return flow.Result{}, reason, false
}

// Set stores result for n against the given inputs, replacing any previous
// entry. It reports whether the result was stored: non-cacheable nodes and
// results larger than the whole budget are not, nor are nodes whose config
// cannot be fingerprinted, since such an entry could never be hit.
func (m *Manager) Set(n flow.Node, edges []flow.Edge, inputs map[string]string, result flow.Result) bool {
	if !m.cacheable(n) {
		return false
	}
	configHash, ok := fingerprint.TryConfigHash(n)
	if !ok {
		m.mu.Lock()
		m.removeLocked(n.ID)
		m.mu.Unlock()
		m.log.Debug("config cannot be fingerprinted, result not cached", logger.Fields(logger.FieldNodeID, n.ID))
		return false
	}

	size := EstimateSize(result)
	entry := &Entry{
		ConfigHash:  configHash,
		EdgeHash:    fingerprint.EdgeHash(n.ID, edges),
		InputHashes: fingerprint.InputHashes(inputs),
		Result:      result.Clone(),
		SizeBytes:   size,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if size > m.maxBytes {
		m.rejected++
		m.log.Warn("cache entry exceeds budget", logger.Fields(
			logger.FieldNodeID, n.ID, "size_bytes", size, "max_bytes", m.maxBytes,
		))
		return false
	}

	m.removeLocked(n.ID)

	evicted := 0
	for m.bytes+size > m.maxBytes {
		id, old, ok := m.lru.RemoveOldest()
		if !ok {
			break
		}
		m.bytes -= old.SizeBytes
		m.metrics.AddCacheBytes(context.Background(), -old.SizeBytes)
		evicted++
		m.log.Debug("cache entry evicted", logger.Fields(logger.FieldNodeID, id, "size_bytes", old.SizeBytes))
	}
	m.evictions += int64(evicted)
	m.metrics.RecordEviction(context.Background(), evicted)

	entry.CachedAt = m.now()
	m.lru.Add(n.ID, entry)
	m.bytes += size
	m.metrics.AddCacheBytes(context.Background(), size)
	return true
}

func (m *Manager) removeLocked(id string) bool {
	old, ok := m.lru.Peek(id)
	if !ok {
		return false
	}
	m.lru.Remove(id)
	m.bytes -= old.SizeBytes
	m.metrics.AddCacheBytes(context.Background(), -old.SizeBytes)
	return true
}

// InvalidateNode removes the entry for id. It reports whether one existed.
func (m *Manager) InvalidateNode(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(id)
}

// InvalidateDownstream removes the entries of id and of every node
// reachable from it along edges. It returns the visited node ids in
// breadth-first order, whether or not they had an entry.
func (m *Manager) InvalidateDownstream(id string, edges []flow.Edge) []string {
	ids := flow.Downstream(id, edges)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, nid := range ids {
		m.removeLocked(nid)
	}
	return ids
}

// Clear removes every entry. Counters are kept.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.AddCacheBytes(context.Background(), -m.bytes)
	m.lru.Purge()
	m.bytes = 0
}

// Has reports whether an entry exists for id, valid or not.
func (m *Manager) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Contains(id)
}

// Peek returns a copy of the entry for id without affecting recency.
func (m *Manager) Peek(id string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lru.Peek(id)
	if !ok {
		return Entry{}, false
	}
	out := *e
	out.Result = e.Result.Clone()
	return out, true
}

// Keys returns the cached node ids from least to most recently used.
func (m *Manager) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Keys()
}

// Stats returns a snapshot of the counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	reasons := make(map[MissReason]int64, len(m.reasons))
	for k, v := range m.reasons {
		reasons[k] = v
	}
	return Stats{
		Hits:        m.hits,
		Misses:      m.misses,
		MissReasons: reasons,
		Evictions:   m.evictions,
		Rejected:    m.rejected,
		EntryCount:  m.lru.Len(),
		TotalBytes:  m.bytes,
		MaxBytes:    m.maxBytes,
	}
}
