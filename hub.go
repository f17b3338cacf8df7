package main

import (
	"slices"
	"sync"

	"wordrill/internal/types"
)

const subscriberBuffer = 32

// Hub fans drill notices out to websocket subscribers and keeps a bounded
// history per scope for clients that poll.
type Hub struct {
	mu      sync.Mutex
	limit   int
	history map[string][]types.Notice
	subs    map[string]map[*subscriber]struct{}
	dropped int
}

type subscriber struct {
	ch chan types.Notice
}

// NewHub keeps up to limit notices per scope.
func NewHub(limit int) *Hub {
	return &Hub{
		limit:   limit,
		history: make(map[string][]types.Notice),
		subs:    make(map[string]map[*subscriber]struct{}),
	}
}

// Notify implements drill.Notifier. It never blocks: a subscriber whose
// buffer is full misses the notice.
func (h *Hub) Notify(n types.Notice) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.limit > 0 {
		hist := append(h.history[n.Scope], n)
		if over := len(hist) - h.limit; over > 0 {
			hist = slices.Clone(hist[over:])
		}
		h.history[n.Scope] = hist
	}

	for sub := range h.subs[n.Scope] {
		select {
		case sub.ch <- n:
		default:
			h.dropped++
			logWarn("Dropped %s notice for slow subscriber in scope %s", n.Kind, n.Scope)
		}
	}
}

// Recent returns a copy of the scope's notice history, oldest first.
func (h *Hub) Recent(scope string) []types.Notice {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.history[scope])
}

// Subscribe registers a live listener for scope. The returned history and
// the channel do not overlap or leave a gap. Call cancel to unsubscribe; it
// closes the channel.
func (h *Hub) Subscribe(scope string) (history []types.Notice, ch <-chan types.Notice, cancel func()) {
	sub := &subscriber{ch: make(chan types.Notice, subscriberBuffer)}

	h.mu.Lock()
	history = slices.Clone(h.history[scope])
	if h.subs[scope] == nil {
		h.subs[scope] = make(map[*subscriber]struct{})
	}
	h.subs[scope][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[scope], sub)
			if len(h.subs[scope]) == 0 {
				delete(h.subs, scope)
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return history, sub.ch, cancel
}

// Subscribers counts live listeners across all scopes.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, subs := range h.subs {
		n += len(subs)
	}
	return n
}

// Dropped counts notices lost to full subscriber buffers.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
