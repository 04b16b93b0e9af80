package suspend

import "sync"

// Hub fans sleep transitions out to subscribers. Publishing never blocks:
// each subscriber has a small buffer and the oldest queued event is dropped
// on overflow, so a lagging consumer misses intermediate edges but always
// retains the newest one. Publishing with no subscribers discards the event.
type Hub struct {
	mu     sync.Mutex
	subs   []chan bool
	closed bool
}

func NewHub() *Hub {
	return &Hub{}
}

// Subscribe returns a Watcher fed by this hub. Subscribing after Close
// yields a watcher that disables itself on first Wait.
func (h *Hub) Subscribe() *Watcher {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan bool, subscriberBuffer)
	if h.closed {
		close(ch)
		return newWatcher(ch)
	}

	h.subs = append(h.subs, ch)

	return newWatcher(ch)
}

// Publish delivers a transition to every subscriber without blocking
func (h *Hub) Publish(entering bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for _, ch := range h.subs {
		select {
		case ch <- entering:
		default:
			// Full buffer: drop the oldest queued event, keep the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- entering:
			default:
			}
		}
	}
}

// Close permanently ends suspend delivery. Every subscriber channel is
// closed; watchers observe that as the disabled state.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for _, ch := range h.subs {
		close(ch)
	}
	h.subs = nil
}
