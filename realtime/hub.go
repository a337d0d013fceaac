package realtime

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

const defaultBuffer = 64

// Subscription is one live listener on a conversation channel. Events arrive
// on C in publish order. The channel is closed by Unsubscribe or Hub.Close.
type Subscription struct {
	ID             string
	ConversationID uint
	C              <-chan Event

	ch chan Event
}

// Hub fans out message-lifecycle events to the subscribers of each
// conversation channel. Delivery is best-effort and at-most-once: a
// subscriber whose buffer is full simply misses the event, and clients must
// reconcile through history/list on reconnect. Within one subscription,
// events arrive in publish order.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uint]map[string]*Subscription
	buffer int
	closed bool
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		rooms:  make(map[uint]map[string]*Subscription),
		buffer: buffer,
	}
}

// Subscribe registers a new listener on the conversation channel.
// Membership checks belong to the caller; the hub only routes.
func (h *Hub) Subscribe(conversationID uint) *Subscription {
	ch := make(chan Event, h.buffer)
	sub := &Subscription{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		C:              ch,
		ch:             ch,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return sub
	}
	room := h.rooms[conversationID]
	if room == nil {
		room = make(map[string]*Subscription)
		h.rooms[conversationID] = room
	}
	room[sub.ID] = sub
	return sub
}

// Unsubscribe removes the listener and closes its channel. Safe to call
// more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[sub.ConversationID]
	if room == nil {
		return
	}
	if _, ok := room[sub.ID]; !ok {
		return
	}
	delete(room, sub.ID)
	if len(room) == 0 {
		delete(h.rooms, sub.ConversationID)
	}
	close(sub.ch)
}

// Publish delivers ev to every current subscriber of the conversation
// channel and reports how many received it. A full subscriber buffer drops
// the event for that subscriber only.
func (h *Hub) Publish(conversationID uint, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0
	}

	delivered := 0
	for _, sub := range h.rooms[conversationID] {
		select {
		case sub.ch <- ev:
			delivered++
		default:
			log.Printf("[notify] dropping %s for slow subscriber %s on conversation %d", ev.Type, sub.ID, conversationID)
		}
	}
	return delivered
}

// Close tears down all channels; further Subscribe calls get an already
// closed subscription and Publish becomes a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, room := range h.rooms {
		for _, sub := range room {
			close(sub.ch)
		}
	}
	h.rooms = make(map[uint]map[string]*Subscription)
}
