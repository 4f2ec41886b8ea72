package preview

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/logger"
)

// KeepAliveInterval is how often an idle stream receives a comment line.
var KeepAliveInterval = 30 * time.Second

// ServeSSE streams the preview events of nodeID to w until the client
// disconnects or the hub stops.
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, nodeID string) {
	log := logger.WithComponent("preview")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("could not disable write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	l := NewListener(ListenerID(nodeID, uuid.NewString()))
	if !hub.Register(l) {
		http.Error(w, "preview hub stopped", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(l)

	hello, _ := json.Marshal(Event{Type: EventConnected, NodeID: nodeID, Time: hub.now()})
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", EventConnected, hello)
	flusher.Flush()

	keepAlive := time.NewTicker(KeepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-l.Events():
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-keepAlive.C:
			_, _ = fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}
