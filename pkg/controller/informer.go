package controller

import (
	"context"
	"log/slog"

	"github.com/costinm/minik8s/pkg/objects"
)

// Handlers are the caller-supplied callbacks an Informer dispatches to.
// They are invoked one at a time, serialized per Informer (§4.3); errors are
// logged but never tear the Informer down.
type Handlers struct {
	OnAdd    func(ctx context.Context, obj objects.KubeObject) error
	OnUpdate func(ctx context.Context, old, new objects.KubeObject) error
	OnDelete func(ctx context.Context, obj objects.KubeObject) error
	OnResync func(ctx context.Context) error
}

// Informer binds a Reflector to Handlers and exposes a read-only cached
// view (store()).
type Informer struct {
	reflector *Reflector
	handlers  Handlers
	log       *slog.Logger
}

// NewInformer builds an Informer over lw for kind.
func NewInformer(kind string, lw ListerWatcher, h Handlers, log *slog.Logger) *Informer {
	if log == nil {
		log = slog.Default()
	}
	return &Informer{
		reflector: NewReflector(kind, lw, log),
		handlers:  h,
		log:       log,
	}
}

// Store returns a snapshot of the cache: a copied map whose objects are the
// same values the cache holds, not clones (see Reflector.Snapshot).
func (inf *Informer) Store() map[string]objects.KubeObject {
	return inf.reflector.Snapshot()
}

// Get returns one cached object.
func (inf *Informer) Get(key string) (objects.KubeObject, bool) {
	return inf.reflector.Get(key)
}

// Run starts the Reflector and the dispatch loop; it blocks until ctx is
// canceled.
func (inf *Informer) Run(ctx context.Context) {
	go inf.reflector.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-inf.reflector.Notifications():
			if !ok {
				return
			}
			inf.dispatch(ctx, n)
		case _, ok := <-inf.reflector.Resync():
			if !ok {
				return
			}
			if inf.handlers.OnResync != nil {
				if err := inf.handlers.OnResync(ctx); err != nil {
					inf.log.Warn("resync handler failed", "err", err)
				}
			}
		case <-inf.reflector.Done():
			inf.log.Info("reflector terminated")
			return
		}
	}
}

func (inf *Informer) dispatch(ctx context.Context, n Notification) {
	var err error
	switch n.Type {
	case NotifyAdd:
		if inf.handlers.OnAdd != nil {
			err = inf.handlers.OnAdd(ctx, n.New)
		}
	case NotifyUpdate:
		if inf.handlers.OnUpdate != nil {
			err = inf.handlers.OnUpdate(ctx, n.Old, n.New)
		}
	case NotifyDelete:
		if inf.handlers.OnDelete != nil {
			err = inf.handlers.OnDelete(ctx, n.Old)
		}
	}
	if err != nil {
		inf.log.Warn("handler failed", "type", n.Type, "err", err)
	}
}
