package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/costinm/minik8s/pkg/objects"
)

// relistBackoff is the fixed back-off between failed List calls (§4.2 step 1).
const relistBackoff = time.Second

// NotificationType discriminates a cache change delivered to an Informer.
type NotificationType string

const (
	NotifyAdd    NotificationType = "Add"
	NotifyUpdate NotificationType = "Update"
	NotifyDelete NotificationType = "Delete"
)

// Notification is one cache change, carried on the Reflector's bounded
// notification channel.
type Notification struct {
	Type NotificationType
	Old  objects.KubeObject // set for Update/Delete
	New  objects.KubeObject // set for Add/Update
}

// notifyChanCap matches the "capacity 16" bound named in §4.2/§5.
const notifyChanCap = 16

// Reflector owns one local cache for one (kind, watched prefix) and keeps it
// coherent with the remote store via list+watch. Notifications and resync
// signals are delivered on bounded channels; a full channel blocks the
// Reflector rather than dropping an event (§5 Backpressure).
type Reflector struct {
	kind string
	lw   ListerWatcher
	log  *slog.Logger

	mu    sync.RWMutex
	cache map[string]objects.KubeObject

	notify chan Notification
	resync chan struct{}
	done   chan struct{}
}

// NewReflector builds a Reflector for kind using lw as its transport.
func NewReflector(kind string, lw ListerWatcher, log *slog.Logger) *Reflector {
	if log == nil {
		log = slog.Default()
	}
	return &Reflector{
		kind:   kind,
		lw:     lw,
		log:    log,
		cache:  map[string]objects.KubeObject{},
		notify: make(chan Notification, notifyChanCap),
		resync: make(chan struct{}, notifyChanCap),
		done:   make(chan struct{}),
	}
}

// Notifications is the Add/Update/Delete feed consumed by an Informer.
func (r *Reflector) Notifications() <-chan Notification { return r.notify }

// Resync is the "re-examine everything" feed consumed by an Informer. A
// signal is sent only when a relist replaced the cache with different
// contents; there is no periodic resync.
func (r *Reflector) Resync() <-chan struct{} { return r.resync }

// Done is closed when Run returns.
func (r *Reflector) Done() <-chan struct{} { return r.done }

// Snapshot returns a copy of the cache map, so callers can hold and iterate
// it across suspension points without holding the Reflector's lock. The
// objects in it are not cloned: they are the same values the cache holds.
// The Reflector never modifies a cached object in place; it only replaces or
// removes map entries.
func (r *Reflector) Snapshot() map[string]objects.KubeObject {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]objects.KubeObject, len(r.cache))
	for k, v := range r.cache {
		out[k] = v
	}
	return out
}

// Get returns one cached object by key.
func (r *Reflector) Get(key string) (objects.KubeObject, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.cache[key]
	return o, ok
}

// Run drives the list-watch protocol (§4.2) until ctx is canceled.
func (r *Reflector) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := r.list(ctx); err != nil {
			r.log.Warn("reflector list failed, retrying", "kind", r.kind, "err", err)
			// A single relistBackoff-spaced pause before the next attempt,
			// using wait's ctx-aware poll instead of a bare time.After so
			// cancellation during the sleep returns promptly.
			waitErr := wait.PollUntilContextCancel(ctx, relistBackoff, false, func(context.Context) (bool, error) {
				return true, nil
			})
			if waitErr != nil {
				return // ctx canceled during backoff
			}
			continue
		}
		// watch returns when the stream ends for any reason; loop back to
		// list phase per §4.2 step 3.
		r.watch(ctx)
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// list performs the initial/relist phase and, if the resulting cache
// differs from the current one, swaps it in and emits Resync.
func (r *Reflector) list(ctx context.Context) error {
	items, err := r.lw.List(ctx)
	if err != nil {
		return err
	}
	next := make(map[string]objects.KubeObject, len(items))
	for _, o := range items {
		next[o.URI()] = o
	}

	r.mu.Lock()
	changed := !sameCache(r.cache, next)
	r.cache = next
	r.mu.Unlock()

	if changed {
		select {
		case r.resync <- struct{}{}:
		case <-ctx.Done():
		}
	}
	return nil
}

// watch runs the watch phase, applying each event to the cache under the
// write lock and emitting the corresponding notification.
func (r *Reflector) watch(ctx context.Context) {
	stream, err := r.lw.Watch(ctx)
	if err != nil {
		r.log.Warn("reflector watch dial failed", "kind", r.kind, "err", err)
		return
	}
	defer stream.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-stream.Events():
			if !ok {
				return
			}
			r.apply(ctx, ev)
		}
	}
}

func (r *Reflector) apply(ctx context.Context, ev WatchEvent) {
	switch ev.Type {
	case EventPut:
		r.mu.Lock()
		old, existed := r.cache[ev.Key]
		if existed && sameObject(old, ev.Object) {
			r.mu.Unlock()
			return // de-duplicate (R2)
		}
		r.cache[ev.Key] = ev.Object
		r.mu.Unlock()

		n := Notification{New: ev.Object}
		if existed {
			n.Type = NotifyUpdate
			n.Old = old
		} else {
			n.Type = NotifyAdd
		}
		select {
		case r.notify <- n:
		case <-ctx.Done():
		}
	case EventDelete:
		r.mu.Lock()
		old, existed := r.cache[ev.Key]
		if existed {
			delete(r.cache, ev.Key)
		}
		r.mu.Unlock()
		if !existed {
			r.log.Debug("inconsistent watch; already deleted", "kind", r.kind, "key", ev.Key)
			return
		}
		select {
		case r.notify <- Notification{Type: NotifyDelete, Old: old}:
		case <-ctx.Done():
		}
	}
}
