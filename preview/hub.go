package preview

import (
	"encoding/json"
	"path/filepath"
	"sync"
	"time"

	"github.com/kbukum/flowkit/logger"
)

const listenerBuffer = 256

// Listener is one connected preview consumer.
type Listener struct {
	id     string
	events chan []byte
	log    *logger.Logger
}

// NewListener creates a listener with a buffered event channel.
func NewListener(id string) *Listener {
	return &Listener{
		id:     id,
		events: make(chan []byte, listenerBuffer),
		log:    logger.WithComponent("preview"),
	}
}

// ID returns the listener id.
func (l *Listener) ID() string { return l.id }

// Events returns the channel events are delivered on.
func (l *Listener) Events() <-chan []byte { return l.events }

// Send queues data for the listener. It returns false and drops data when
// the listener's buffer is full.
func (l *Listener) Send(data []byte) bool {
	select {
	case l.events <- data:
		return true
	default:
		l.log.Warn("listener buffer full, dropping event", logger.Fields("listener_id", l.id))
		return false
	}
}

func (l *Listener) close() { close(l.events) }

type message struct {
	pattern string
	data    []byte
}

// Hub routes events to listeners. Run must be running for registration
// and delivery to make progress.
type Hub struct {
	listeners  map[string]*Listener
	register   chan *Listener
	unregister chan *Listener
	broadcast  chan message
	done       chan struct{}
	stopped    bool
	mu         sync.RWMutex
	now        func() time.Time
	log        *logger.Logger
}

// NewHub creates a stopped-until-Run hub.
func NewHub() *Hub {
	return &Hub{
		listeners:  make(map[string]*Listener),
		register:   make(chan *Listener),
		unregister: make(chan *Listener),
		broadcast:  make(chan message, 1024),
		done:       make(chan struct{}),
		now:        time.Now,
		log:        logger.WithComponent("preview"),
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case l := <-h.register:
			h.mu.Lock()
			if old, ok := h.listeners[l.id]; ok {
				old.close()
			}
			h.listeners[l.id] = l
			count := len(h.listeners)
			h.mu.Unlock()
			h.log.Debug("listener registered", logger.Fields("listener_id", l.id, "total", count))

		case l := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.listeners[l.id]; ok && cur == l {
				delete(h.listeners, l.id)
				l.close()
			}
			count := len(h.listeners)
			h.mu.Unlock()
			h.log.Debug("listener unregistered", logger.Fields("listener_id", l.id, "total", count))

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Stop shuts the hub down and closes every listener. Safe to call twice.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, l := range h.listeners {
		l.close()
		delete(h.listeners, id)
	}
}

// Register adds l. It returns false if the hub has stopped.
func (h *Hub) Register(l *Listener) bool {
	select {
	case h.register <- l:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes l and closes its channel.
func (h *Hub) Unregister(l *Listener) {
	select {
	case h.unregister <- l:
	case <-h.done:
	}
}

// BroadcastToPattern queues data for every listener whose id matches the
// glob pattern.
func (h *Hub) BroadcastToPattern(pattern string, data []byte) {
	select {
	case h.broadcast <- message{pattern: pattern, data: data}:
	case <-h.done:
	default:
		h.log.Warn("broadcast queue full, dropping event", logger.Fields("pattern", pattern))
	}
}

// Publish delivers e to the listeners of e.NodeID.
func (h *Hub) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = h.now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	h.BroadcastToPattern(NodePattern(e.NodeID), data)
}

func (h *Hub) deliver(msg message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, err := filepath.Match(msg.pattern, ""); err != nil {
		h.log.Error("bad listener pattern", logger.Fields("pattern", msg.pattern, logger.FieldError, err.Error()))
		return
	}
	for id, l := range h.listeners {
		if matches(msg.pattern, id) {
			l.Send(msg.data)
		}
	}
}

func matches(pattern, id string) bool {
	ok, _ := filepath.Match(pattern, id)
	return ok
}

// ListenerCount returns the number of registered listeners.
func (h *Hub) ListenerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// ListenerIDs returns the ids of registered listeners.
func (h *Hub) ListenerIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.listeners))
	for id := range h.listeners {
		ids = append(ids, id)
	}
	return ids
}

var _ Publisher = (*Hub)(nil)
