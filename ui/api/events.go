package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sallytsm/sally/notifier"
)

// eventBufferSize bounds undelivered events per SSE connection. A slow
// client drops events rather than stalling the bus.
const eventBufferSize = 32

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 15 * time.Second

// handleEvents streams bus events to the client as server-sent events.
// Each bus event becomes an SSE message whose event name is the bus
// event type and whose data is the JSON-encoded event.
func (rt *router) handleEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "sse_not_supported", "SSE not supported")
		return
	}

	events := make(chan *notifier.Event, eventBufferSize)
	unsubscribe := rt.client.Bus().SubscribeAll(func(event *notifier.Event) {
		select {
		case events <- event:
		default:
		}
	})
	defer unsubscribe()

	// Send initial stats so dashboards render without waiting for activity
	if stats, err := rt.svc.GetDashboardStats(r.Context()); err == nil {
		writeSSE(w, "stats", stats)
		flusher.Flush()
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-events:
			writeSSE(w, string(event.Type), event)
			flusher.Flush()
		case <-heartbeat.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		}
	}
}

// writeSSE writes a single SSE message.
func writeSSE(w http.ResponseWriter, name string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	_, _ = w.Write([]byte("event: " + name + "\ndata: "))
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n\n"))
}
