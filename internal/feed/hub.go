package feed

import (
	"sync"

	"github.com/pulseboard/pulseboard/internal/transfer"
)

const clientQueueSize = 16

// Hub relays telemetry events to connected websocket clients. Each
// client gets a bounded queue; when a client cannot keep up the newest
// event is dropped for that client rather than blocking the feed.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan *transfer.MetricsEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[chan *transfer.MetricsEvent]struct{}),
	}
}

func (h *Hub) Subscribe() chan *transfer.MetricsEvent {
	ch := make(chan *transfer.MetricsEvent, clientQueueSize)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan *transfer.MetricsEvent) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *Hub) Broadcast(event *transfer.MetricsEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- event:
		default:
			// Slow client, drop the event for it.
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
