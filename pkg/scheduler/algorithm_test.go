package scheduler

import (
	"testing"
	"time"

	"github.com/costinm/minik8s/pkg/objects"
)

func TestSimpleSelectsFewestAssignedNode(t *testing.T) {
	now := time.Unix(1000, 0)
	algo := &Simple{LivenessWindow: 40 * time.Second, Now: func() time.Time { return now }}

	nodes := []*objects.Node{
		{Metadata: objects.Metadata{Name: "n1"}, Status: objects.NodeStatus{
			Addresses:     objects.NodeAddresses{InternalIP: "10.0.0.1"},
			LastHeartbeat: now.Unix(),
		}},
		{Metadata: objects.Metadata{Name: "n2"}, Status: objects.NodeStatus{
			Addresses:     objects.NodeAddresses{InternalIP: "10.0.0.2"},
			LastHeartbeat: now.Unix(),
		}},
	}
	pods := []*objects.Pod{
		{Metadata: objects.Metadata{Name: "p1"}, Status: objects.PodStatus{HostIP: "10.0.0.1"}},
	}
	pod := &objects.Pod{Metadata: objects.Metadata{Name: "p2"}}

	got, err := algo.SelectNode(nodes, pods, pod)
	if err != nil {
		t.Fatalf("SelectNode: %v", err)
	}
	if got != "n2" {
		t.Errorf("SelectNode = %q, want n2 (fewer assigned pods)", got)
	}
}

func TestSimpleExcludesStaleNode(t *testing.T) {
	now := time.Unix(1000, 0)
	algo := &Simple{LivenessWindow: 40 * time.Second, Now: func() time.Time { return now }}

	nodes := []*objects.Node{
		{Metadata: objects.Metadata{Name: "stale"}, Status: objects.NodeStatus{
			Addresses:     objects.NodeAddresses{InternalIP: "10.0.0.1"},
			LastHeartbeat: now.Add(-time.Minute).Unix(),
		}},
	}
	pod := &objects.Pod{Metadata: objects.Metadata{Name: "p1"}}

	_, err := algo.SelectNode(nodes, nil, pod)
	if err != ErrNoCandidate {
		t.Errorf("SelectNode = %v, want ErrNoCandidate", err)
	}
}

func TestSimpleTiebreaksByName(t *testing.T) {
	now := time.Unix(1000, 0)
	algo := &Simple{LivenessWindow: 40 * time.Second, Now: func() time.Time { return now }}

	nodes := []*objects.Node{
		{Metadata: objects.Metadata{Name: "b"}, Status: objects.NodeStatus{
			Addresses: objects.NodeAddresses{InternalIP: "10.0.0.2"}, LastHeartbeat: now.Unix(),
		}},
		{Metadata: objects.Metadata{Name: "a"}, Status: objects.NodeStatus{
			Addresses: objects.NodeAddresses{InternalIP: "10.0.0.1"}, LastHeartbeat: now.Unix(),
		}},
	}
	pod := &objects.Pod{Metadata: objects.Metadata{Name: "p1"}}

	got, err := algo.SelectNode(nodes, nil, pod)
	if err != nil {
		t.Fatalf("SelectNode: %v", err)
	}
	if got != "a" {
		t.Errorf("SelectNode = %q, want a", got)
	}
}
