// Package notifier broadcasts the latest value of something that changes,
// such as a reloaded catalog, to any number of listeners.
package notifier

import "sync"

// Notifier delivers values to subscribed listeners. Each listener holds at
// most one pending value: a slow listener sees the newest value, not every
// value.
type Notifier[T any] struct {
	mu        sync.RWMutex
	listeners map[chan T]struct{}
}

// New creates a new Notifier instance.
func New[T any]() *Notifier[T] {
	return &Notifier[T]{
		listeners: make(map[chan T]struct{}),
	}
}

// Subscribe returns a channel that receives broadcast values.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier[T]) Subscribe() <-chan T {
	ch := make(chan T, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier[T]) Unsubscribe(sub <-chan T) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.listeners {
		if ch == sub {
			delete(n.listeners, ch)
			close(ch)
			return
		}
	}
}

// Broadcast sends v to all listeners without blocking. A pending value
// nobody has read yet is replaced.
func (n *Notifier[T]) Broadcast(v T) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.listeners {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Len returns the number of listeners.
func (n *Notifier[T]) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
