package sync

import (
	gosync "sync"

	"github.com/nhle/todolist/internal/model"
)

// Subscription is a cancellable handle on a Hub's snapshot stream.
// The channel holds at most one pending snapshot; a newer publish replaces
// one the subscriber has not read yet.
type Subscription struct {
	id   uint64
	ch   chan model.Snapshot
	hub  *Hub
	once gosync.Once
}

// C returns the channel snapshots are delivered on. It is closed when the
// subscription is cancelled or the hub is closed.
func (s *Subscription) C() <-chan model.Snapshot {
	return s.ch
}

// Cancel stops delivery and closes the channel. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.hub.remove(s)
}

// Hub fans out full snapshots of the todo table to every subscriber.
type Hub struct {
	mu      gosync.Mutex
	subs    map[uint64]*Subscription
	nextID  uint64
	version uint64
	last    *model.Snapshot
	closed  bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[uint64]*Subscription),
	}
}

// Subscribe registers a new subscriber. If a snapshot has already been
// published, it is queued for the subscriber immediately.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:  h.nextID,
		ch:  make(chan model.Snapshot, 1),
		hub: h,
	}
	if h.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}

	h.subs[sub.id] = sub
	if h.last != nil {
		sub.ch <- *h.last
	}
	return sub
}

// Publish stamps todos with the next version and delivers the snapshot to
// every subscriber without blocking.
func (h *Hub) Publish(todos []model.Todo) model.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.version++
	snap := model.Snapshot{Version: h.version, Todos: todos}
	h.last = &snap
	if h.closed {
		return snap
	}

	for _, sub := range h.subs {
		deliver(sub.ch, snap)
	}
	return snap
}

// Last returns the most recently published snapshot.
func (h *Hub) Last() (model.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.last == nil {
		return model.Snapshot{}, false
	}
	return *h.last, true
}

// Version returns the version of the most recent publish (0 if none).
func (h *Hub) Version() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.version
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close cancels every subscription. Later subscriptions start closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		sub.once.Do(func() { close(sub.ch) })
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs, sub.id)
	sub.once.Do(func() { close(sub.ch) })
}

// deliver sends snap on ch, replacing a snapshot still waiting there.
// Callers hold the hub lock, so nothing else sends on ch concurrently.
func deliver(ch chan model.Snapshot, snap model.Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- snap
}
