package realtime

import (
	"log"
	"sync"
)

// Subscriber delivers one encoded event to a single peer. Implementations
// must be safe for concurrent use; the hub never retries a failed send.
type Subscriber interface {
	Send(data []byte) error
}

// Hub is the connection registry: it tracks which live subscribers belong to
// which passphrase and fans events out to them. It holds connection handles
// only, never session state.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[Subscriber]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[Subscriber]struct{})}
}

// Subscribe adds the connection to the passphrase's subscriber set.
func (h *Hub) Subscribe(passphrase string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[passphrase]
	if !ok {
		set = make(map[Subscriber]struct{})
		h.subs[passphrase] = set
	}
	set[sub] = struct{}{}
}

// Unsubscribe removes the connection; emptied sets are pruned so the map
// never accumulates dead passphrase entries.
func (h *Hub) Unsubscribe(passphrase string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[passphrase]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, passphrase)
	}
}

// Subscribers returns the current subscriber count for a passphrase.
func (h *Hub) Subscribers(passphrase string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[passphrase])
}

// Broadcast delivers data to every current subscriber of the passphrase,
// best effort. The subscriber list is snapshotted under the lock and
// delivery happens outside it, so one slow peer never serializes the hub.
// Send failures are swallowed; the failed peer is cleaned up by its own
// disconnect path.
func (h *Hub) Broadcast(passphrase string, data []byte) {
	h.mu.RLock()
	set := h.subs[passphrase]
	targets := make([]Subscriber, 0, len(set))
	for sub := range set {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		if err := sub.Send(data); err != nil {
			log.Printf("[hub] dropped event for one subscriber of %s: %v", passphrase, err)
		}
	}
}
