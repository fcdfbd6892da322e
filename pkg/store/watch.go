package store

import (
	"strings"

	"github.com/costinm/minik8s/pkg/objects"
)

// EventType discriminates a WatchEvent.
type EventType string

const (
	EventPut    EventType = "Put"
	EventDelete EventType = "Delete"
)

// Event is the WatchEvent carried on a watch stream (§4.1).
type Event struct {
	Type   EventType        `json:"type"`
	Key    string            `json:"key"`
	Object objects.KubeObject `json:"object,omitempty"`
}

// watchChanCap bounds every watch channel; producers block rather than drop
// (§5 Backpressure).
const watchChanCap = 16

// subscription is one open watch stream.
type subscription struct {
	prefix string
	ch     chan Event
	done   chan struct{}
}

// Watch opens a streaming channel that delivers every subsequent Put/Delete
// whose key matches prefix, in commit order. Call Stop on the returned
// handle to unsubscribe.
func (s *Store) Watch(prefix string) *WatchHandle {
	sub := &subscription{
		prefix: prefix,
		ch:     make(chan Event, watchChanCap),
		done:   make(chan struct{}),
	}
	s.mu.Lock()
	s.watchers[prefix] = append(s.watchers[prefix], sub)
	s.mu.Unlock()
	return &WatchHandle{store: s, sub: sub}
}

// WatchHandle is the consumer-facing side of a Watch subscription.
type WatchHandle struct {
	store *Store
	sub   *subscription
}

// Events returns the channel of events. It is closed after Stop.
func (w *WatchHandle) Events() <-chan Event { return w.sub.ch }

// Stop unsubscribes and closes the event channel.
func (w *WatchHandle) Stop() {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	subs := w.store.watchers[w.sub.prefix]
	for i, s := range subs {
		if s == w.sub {
			w.store.watchers[w.sub.prefix] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	close(w.sub.ch)
}

// broadcastLocked delivers ev to every subscription whose prefix matches
// ev.Key. Called with s.mu held so that broadcast order matches commit
// order (P5). A full channel blocks the caller — the store never drops a
// watch event.
func (s *Store) broadcastLocked(ev Event) {
	for prefix, subs := range s.watchers {
		if !strings.HasPrefix(ev.Key, prefix) {
			continue
		}
		for _, sub := range subs {
			sub.ch <- ev
		}
	}
}
