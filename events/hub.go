// Package events fans note changes out to live subscribers.
package events

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/vinizap/lumi-notes/domain"
)

const (
	NoteCreated = "note_created"
	NoteUpdated = "note_updated"
	NoteDeleted = "note_deleted"
)

const subscriberBuffer = 16

type Event struct {
	Type   string       `json:"type"`
	NoteID int64        `json:"note_id"`
	Note   *domain.Note `json:"note,omitempty"`
}

// Subscription receives events until Close is called or the hub stops, at
// which point C is closed.
type Subscription struct {
	C   <-chan Event
	c   chan Event
	hub *Hub
}

func (s *Subscription) Close() {
	select {
	case s.hub.unregister <- s.c:
	case <-s.hub.done:
	}
}

type Hub struct {
	clients    map[chan Event]struct{}
	broadcast  chan Event
	register   chan chan Event
	unregister chan chan Event
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[chan Event]struct{}),
		broadcast:  make(chan Event, 256),
		register:   make(chan chan Event),
		unregister: make(chan chan Event),
		done:       make(chan struct{}),
	}
}

// Run owns the subscriber set. It returns when ctx is cancelled and closes
// every remaining subscription.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for c := range h.clients {
			close(c)
		}
		h.clients = nil
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c)
			}

		case ev := <-h.broadcast:
			for c := range h.clients {
				select {
				case c <- ev:
				default:
					log.Warn().Str("type", ev.Type).Msg("dropping slow event subscriber")
					delete(h.clients, c)
					close(c)
				}
			}
		}
	}
}

// Subscribe registers a new subscriber. It returns nil once the hub has
// stopped.
func (h *Hub) Subscribe() *Subscription {
	c := make(chan Event, subscriberBuffer)
	select {
	case h.register <- c:
		return &Subscription{C: c, c: c, hub: h}
	case <-h.done:
		return nil
	}
}

// Publish queues an event without blocking. Events published while the queue
// is full are discarded.
func (h *Hub) Publish(ev Event) {
	select {
	case h.broadcast <- ev:
	default:
		log.Warn().Str("type", ev.Type).Int64("note_id", ev.NoteID).Msg("event queue full, dropping event")
	}
}

func (h *Hub) NoteCreated(n *domain.Note) { h.Publish(Event{Type: NoteCreated, NoteID: n.ID, Note: n}) }
func (h *Hub) NoteUpdated(n *domain.Note) { h.Publish(Event{Type: NoteUpdated, NoteID: n.ID, Note: n}) }
func (h *Hub) NoteDeleted(id int64)       { h.Publish(Event{Type: NoteDeleted, NoteID: id}) }
