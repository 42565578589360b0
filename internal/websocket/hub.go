// Package websocket streams soft-delete lifecycle events to connected
// clients. A client may narrow the stream to specific collections with
// repeated ?collection= query parameters.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"go-soft-delete/internal/event"
)

var connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "softdelete_event_stream_clients",
	Help: "Websocket clients currently receiving lifecycle events.",
})

// Hub owns the set of connected clients. Only Run touches the set.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	bus        event.Bus
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		bus:        bus,
	}
}

// Run relays bus events until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()
	defer func() {
		close(h.done)
		for client := range h.clients {
			h.drop(client)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			connectedClients.Inc()
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			h.broadcast(e)
		}
	}
}

func (h *Hub) broadcast(e event.Event) {
	var message []byte
	for client := range h.clients {
		if !client.wants(e.Collection) {
			continue
		}
		if message == nil {
			var err error
			if message, err = json.Marshal(e); err != nil {
				slog.Error("failed to encode lifecycle event", "type", e.Type, "error", err)
				return
			}
		}
		select {
		case client.send <- message:
		default:
			slog.Warn("event stream client too slow, disconnecting", "collections", client.collections)
			h.drop(client)
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	connectedClients.Dec()
}
