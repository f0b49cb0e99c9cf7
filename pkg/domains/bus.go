package domains

import "sync"

// Selection is one domain-change notification
type Selection struct {
	SessionID string
	Email     string
	DomainID  int64
	Code      string
}

// Bus fans domain selections out to in-process subscribers. Delivery is
// best-effort: a subscriber that is not draining its channel misses events
// rather than blocking the selector. Subscribers that need the authoritative
// value read it from the session store, which is always written first.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Selection
	next int
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Selection)}
}

// Subscribe registers a listener. The returned cancel function must be called
// to release the subscription.
func (b *Bus) Subscribe() (<-chan Selection, func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan Selection, 8)
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a selection to every subscriber without blocking
func (b *Bus) Publish(sel Selection) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- sel:
		default:
		}
	}
}

// Len reports the number of live subscriptions
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
