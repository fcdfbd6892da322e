package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/costinm/minik8s/pkg/objects"
)

func TestInformerDispatchesHandlers(t *testing.T) {
	lw := newFakeListerWatcher()

	var mu sync.Mutex
	var added []string

	h := Handlers{
		OnAdd: func(ctx context.Context, obj objects.KubeObject) error {
			mu.Lock()
			added = append(added, obj.GetMetadata().Name)
			mu.Unlock()
			return nil
		},
	}
	inf := NewInformer(objects.KindPod, lw, h, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go inf.Run(ctx)

	lw.push(&objects.Pod{Metadata: objects.Metadata{Name: "a"}})

	waitForCondition(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(added) == 1 && added[0] == "a"
	})

	if _, ok := inf.Get("/api/v1/pods/a"); !ok {
		t.Error("Get did not find pod added via watch")
	}
}
