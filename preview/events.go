package preview

import (
	"strings"
	"time"
)

// Event types.
const (
	EventConnected = "connected"
	EventChunk     = "chunk"
	EventDone      = "done"
	EventError     = "error"
)

// Event is one message delivered to the listeners of a node.
type Event struct {
	Type   string    `json:"type"`
	RunID  string    `json:"runId,omitempty"`
	NodeID string    `json:"nodeId"`
	Chunk  string    `json:"chunk,omitempty"`
	Output string    `json:"output,omitempty"`
	Error  string    `json:"error,omitempty"`
	Time   time.Time `json:"time"`
}

// Publisher accepts events for delivery.
type Publisher interface {
	Publish(e Event)
}

// ListenerPrefix is the id prefix of node listeners.
const ListenerPrefix = "node:"

// ListenerID builds the id of a listener for nodeID.
func ListenerID(nodeID, suffix string) string {
	return ListenerPrefix + nodeID + ":" + suffix
}

// NodePattern matches every listener of nodeID. Glob metacharacters in the
// id are escaped.
func NodePattern(nodeID string) string {
	return ListenerPrefix + escapeGlob(nodeID) + ":*"
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
