package controller

import (
	"context"
	"testing"
	"time"

	"github.com/costinm/minik8s/pkg/objects"
)

func TestReflectorListThenWatch(t *testing.T) {
	lw := newFakeListerWatcher()
	pod := &objects.Pod{Metadata: objects.Metadata{Name: "a"}}
	lw.items[pod.URI()] = pod

	r := NewReflector(objects.KindPod, lw, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	waitForCondition(t, func() bool {
		_, ok := r.Get(pod.URI())
		return ok
	})

	pod2 := &objects.Pod{Metadata: objects.Metadata{Name: "b"}}
	lw.push(pod2)

	select {
	case n := <-r.Notifications():
		if n.Type != NotifyAdd || n.New.GetMetadata().Name != "b" {
			t.Errorf("unexpected notification: %+v", n)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for add notification")
	}

	lw.remove(pod2)
	select {
	case n := <-r.Notifications():
		if n.Type != NotifyDelete || n.Old.GetMetadata().Name != "b" {
			t.Errorf("unexpected notification: %+v", n)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delete notification")
	}
}

func TestReflectorDedupesIdenticalPut(t *testing.T) {
	lw := newFakeListerWatcher()
	r := NewReflector(objects.KindPod, lw, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	pod := &objects.Pod{Metadata: objects.Metadata{Name: "a"}}
	lw.push(pod)
	select {
	case <-r.Notifications():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial add")
	}

	lw.push(pod) // identical republish must not notify again (R2)
	select {
	case n := <-r.Notifications():
		t.Fatalf("unexpected duplicate notification: %+v", n)
	case <-time.After(100 * time.Millisecond):
	}
}

func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
