// Package viewer streams the live cascade to browser pages over websockets.
package viewer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jce-C/megregalo/internal/cascade"
	"github.com/Jce-C/megregalo/internal/render"
)

const (
	MsgItemAdmitted   = "item.admitted"
	MsgItemRemoved    = "item.removed"
	MsgSceneSnapshot  = "scene.snapshot"
	MsgPhotosDegraded = "photos.degraded"
)

type Message struct {
	Type      string           `json:"type"`
	Element   *render.Element  `json:"element,omitempty"`
	ID        string           `json:"id,omitempty"`
	Elements  []render.Element `json:"elements,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Hub fans scene changes out to every connected page. It satisfies
// cascade.Observer.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	surface    render.Surface
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			// every admission after this point also reaches the client
			if client.scene != nil {
				client.send <- h.Snapshot(client.scene.Snapshot())
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case payload := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// slow reader
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Admitted(item cascade.Item) {
	el := h.surface.Element(item)
	h.publish(Message{Type: MsgItemAdmitted, Element: &el})
}

func (h *Hub) Removed(item cascade.Item) {
	h.publish(Message{Type: MsgItemRemoved, ID: item.ID})
}

func (h *Hub) PhotosDegraded(err error) {
	h.publish(Message{Type: MsgPhotosDegraded, Reason: err.Error()})
}

// Snapshot builds the message a page receives right after connecting.
func (h *Hub) Snapshot(items []cascade.Item) []byte {
	return h.marshal(Message{Type: MsgSceneSnapshot, Elements: h.surface.Elements(items)})
}

// publish never blocks the scheduler; a full queue drops the message.
func (h *Hub) publish(msg Message) {
	select {
	case h.broadcast <- h.marshal(msg):
	default:
		h.log.Warn().Str("type", msg.Type).Msg("broadcast queue full, message dropped")
	}
}

func (h *Hub) marshal(msg Message) []byte {
	msg.Timestamp = time.Now().UTC()
	b, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Str("type", msg.Type).Msg("marshal message failed")
		return []byte("{}")
	}
	return b
}
