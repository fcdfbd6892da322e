// Package objects defines the data model shared by the object store, the
// reflectors/informers and the control loops built on top of them.
//
// KubeObject is a closed sum over kinds, dispatched by a single "kind" JSON
// tag — the tagged-variant model called out in the DESIGN NOTES. Each
// concrete type embeds Metadata and implements KubeObject; URI() is the
// canonical storage key and is injective over live objects (I1).
package objects

import (
	"fmt"

	"k8s.io/apimachinery/pkg/labels"
)

// OwnerReference points from a dependent object back to the object that
// created it, e.g. a Pod created by a ReplicaSet.
type OwnerReference struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Metadata is the tuple every persisted entity carries.
type Metadata struct {
	Name            string            `json:"name"`
	UID             string            `json:"uid,omitempty"`
	Labels          map[string]string `json:"labels,omitempty"`
	OwnerReferences []OwnerReference  `json:"owner_references,omitempty"`
}

// HasOwner reports whether the metadata names an owner of the given kind.
func (m *Metadata) HasOwner(kind, name string) bool {
	for _, o := range m.OwnerReferences {
		if o.Kind == kind && o.Name == name {
			return true
		}
	}
	return false
}

// LabelsSupersetOf reports whether m.Labels contains every key/value in sel
// (the selector-match relation used throughout I3/I4/§4.5/§4.7), using
// apimachinery's label-selector semantics rather than a hand-rolled map
// walk.
func (m *Metadata) LabelsSupersetOf(sel map[string]string) bool {
	if len(sel) == 0 {
		// B3: an empty selector matches no pods.
		return false
	}
	return labels.SelectorFromSet(labels.Set(sel)).Matches(labels.Set(m.Labels))
}

// KubeObject is the interface every stored variant implements.
type KubeObject interface {
	Kind() string
	GetMetadata() *Metadata
	URI() string
}

// Plural maps a kind discriminator to the path segment used in its URI and
// in the HTTP API (§6): "Pod" -> "pods".
func Plural(kind string) string {
	switch kind {
	case KindPod:
		return "pods"
	case KindNode:
		return "nodes"
	case KindBinding:
		return "bindings"
	case KindService:
		return "services"
	case KindReplicaSet:
		return "replicasets"
	case KindHPA:
		return "horizontalpodautoscalers"
	case KindGpuJob:
		return "gpujobs"
	case KindFunction:
		return "functions"
	case KindIngress:
		return "ingresses"
	case KindWorkflow:
		return "workflows"
	default:
		return kind
	}
}

func uri(kind, name string) string {
	return fmt.Sprintf("/api/v1/%s/%s", Plural(kind), name)
}

const (
	KindPod        = "Pod"
	KindNode       = "Node"
	KindBinding    = "Binding"
	KindService    = "Service"
	KindReplicaSet = "ReplicaSet"
	KindHPA        = "HorizontalPodAutoscaler"
	KindGpuJob     = "GpuJob"
	KindFunction   = "Function"
	KindIngress    = "Ingress"
	KindWorkflow   = "Workflow"
)
