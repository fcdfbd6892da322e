// Package scheduler implements C4: it watches pods, picks a node for every
// unscheduled one using a pluggable Algorithm, and writes a Binding.
package scheduler

import (
	"sort"
	"time"

	"github.com/costinm/minik8s/pkg/objects"
)

// Algorithm selects a node for pod, or reports ErrNoCandidate when none
// qualifies. It is given the full node and pod caches so it can apply
// whatever scoring it likes; the shipped Algorithm is "simple" (§4.4).
type Algorithm interface {
	SelectNode(nodes []*objects.Node, pods []*objects.Pod, pod *objects.Pod) (string, error)
}

// ErrNoCandidate is returned when no node currently qualifies.
var ErrNoCandidate = errNoCandidate{}

type errNoCandidate struct{}

func (errNoCandidate) Error() string { return "scheduler: no candidate node" }

// Simple implements the shipped algorithm: among live nodes (internal IP
// set, heartbeat within LivenessWindow of now), pick the one with the
// fewest currently-assigned pods, ties broken by name ascending.
type Simple struct {
	LivenessWindow time.Duration
	Now            func() time.Time
}

func (s *Simple) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Simple) SelectNode(nodes []*objects.Node, pods []*objects.Pod, pod *objects.Pod) (string, error) {
	cutoff := s.now().Add(-s.LivenessWindow)

	type candidate struct {
		name  string
		ip    string
		count int
	}
	var candidates []candidate
	for _, n := range nodes {
		if n.Status.Addresses.InternalIP == "" {
			continue
		}
		if time.Unix(n.Status.LastHeartbeat, 0).Before(cutoff) {
			continue
		}
		candidates = append(candidates, candidate{name: n.Metadata.Name, ip: n.Status.Addresses.InternalIP})
	}
	if len(candidates) == 0 {
		return "", ErrNoCandidate
	}

	for i := range candidates {
		count := 0
		for _, p := range pods {
			if p.Status.HostIP == candidates[i].ip {
				count++
			}
		}
		candidates[i].count = count
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count < candidates[j].count
		}
		return candidates[i].name < candidates[j].name
	})
	return candidates[0].name, nil
}
