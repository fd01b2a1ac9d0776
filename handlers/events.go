package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/DosDaiynSol/infinity-life-assistant/engine"
)

// EventsHandler streams cycle progress over server-sent events. A subscriber
// first receives a replay of the current run's history, then live events.
type EventsHandler struct {
	bus *engine.Bus
}

func NewEventsHandler(bus *engine.Bus) *EventsHandler {
	return &EventsHandler{bus: bus}
}

// Stream writes directly to the connection, so it does not go through the
// Result pipeline.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id, ch, replay := h.bus.Subscribe()
	defer h.bus.Unsubscribe(id)

	for _, event := range replay {
		writeEvent(w, event)
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-ch:
			if !open {
				return
			}
			writeEvent(w, event)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event engine.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal progress event", "error", err)
		return
	}
	_, _ = w.Write([]byte("event: " + string(event.Type) + "\ndata: " + string(payload) + "\n\n"))
}
