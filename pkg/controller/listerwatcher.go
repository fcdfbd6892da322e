// Package controller implements C2 (Reflector) and C3 (Informer): the
// list-watch pump and the cache+dispatch layer every control loop in this
// repo builds on. See DESIGN NOTES §9 for why the source's boxed closures
// are expressed here as two small interfaces instead.
package controller

import (
	"context"

	"github.com/costinm/minik8s/pkg/objects"
)

// ListerWatcher is the seam between a Reflector and its transport. The
// shipped implementation (pkg/client) talks HTTP+WebSocket to the object
// server; a test can substitute an in-memory fake.
type ListerWatcher interface {
	// List returns every object of the watched kind as of now.
	List(ctx context.Context) ([]objects.KubeObject, error)
	// Watch opens a streaming connection; it must be closed by calling
	// Close on the returned WatchStream once the Reflector is done with it
	// or needs to restart (§4.2 step 3).
	Watch(ctx context.Context) (WatchStream, error)
}

// EventType discriminates a raw transport-level watch event, before the
// Reflector has reconciled it against its cache.
type EventType string

const (
	EventPut    EventType = "Put"
	EventDelete EventType = "Delete"
)

// WatchEvent is what a WatchStream delivers.
type WatchEvent struct {
	Type   EventType
	Key    string
	Object objects.KubeObject
}

// WatchStream is an open watch connection. Events returns a channel closed
// when the stream ends (error or clean close); the Reflector treats either
// as "restart from List phase" (§4.2 step 3).
type WatchStream interface {
	Events() <-chan WatchEvent
	Close() error
}
