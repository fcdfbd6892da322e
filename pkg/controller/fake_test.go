package controller

import (
	"context"
	"sync"

	"github.com/costinm/minik8s/pkg/objects"
)

// fakeListerWatcher is an in-memory ListerWatcher a test can drive by
// calling push/remove; it fans out a single list snapshot and a stream of
// watch events, matching the real client's contract closely enough to
// exercise the Reflector/Informer without a network.
type fakeListerWatcher struct {
	mu    sync.Mutex
	items map[string]objects.KubeObject

	streams []chan WatchEvent
}

func newFakeListerWatcher() *fakeListerWatcher {
	return &fakeListerWatcher{items: map[string]objects.KubeObject{}}
}

func (f *fakeListerWatcher) List(ctx context.Context) ([]objects.KubeObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]objects.KubeObject, 0, len(f.items))
	for _, o := range f.items {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeListerWatcher) Watch(ctx context.Context) (WatchStream, error) {
	ch := make(chan WatchEvent, 16)
	f.mu.Lock()
	f.streams = append(f.streams, ch)
	f.mu.Unlock()
	return &fakeWatchStream{ch: ch}, nil
}

func (f *fakeListerWatcher) push(obj objects.KubeObject) {
	f.mu.Lock()
	f.items[obj.URI()] = obj
	streams := append([]chan WatchEvent(nil), f.streams...)
	f.mu.Unlock()
	for _, ch := range streams {
		ch <- WatchEvent{Type: EventPut, Key: obj.URI(), Object: obj}
	}
}

func (f *fakeListerWatcher) remove(obj objects.KubeObject) {
	f.mu.Lock()
	delete(f.items, obj.URI())
	streams := append([]chan WatchEvent(nil), f.streams...)
	f.mu.Unlock()
	for _, ch := range streams {
		ch <- WatchEvent{Type: EventDelete, Key: obj.URI()}
	}
}

type fakeWatchStream struct {
	ch chan WatchEvent
}

func (s *fakeWatchStream) Events() <-chan WatchEvent { return s.ch }
func (s *fakeWatchStream) Close() error              { return nil }
