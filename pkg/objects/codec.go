package objects

import (
	"encoding/json"
	"fmt"
)

// envelope is the wire shape used to recover the concrete type from a
// "kind" discriminator, mirroring the KubeObject sum type.
type envelope struct {
	Kind string `json:"kind"`
}

// New returns a zero-valued concrete object for kind, or nil if kind is
// unrecognized.
func New(kind string) KubeObject {
	switch kind {
	case KindPod:
		return &Pod{}
	case KindNode:
		return &Node{}
	case KindBinding:
		return &Binding{}
	case KindService:
		return &Service{}
	case KindReplicaSet:
		return &ReplicaSet{}
	case KindHPA:
		return &HorizontalPodAutoscaler{}
	case KindGpuJob:
		return &GpuJob{}
	case KindFunction:
		return &Function{}
	case KindIngress:
		return &Ingress{}
	case KindWorkflow:
		return &Workflow{}
	default:
		return nil
	}
}

// Encode marshals a KubeObject with its kind discriminator stamped in.
func Encode(o KubeObject) ([]byte, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	kb, _ := json.Marshal(o.Kind())
	m["kind"] = kb
	return json.Marshal(m)
}

// Decode reverses Encode: it reads the "kind" tag, allocates the matching
// concrete type and unmarshals into it.
func Decode(data []byte) (KubeObject, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("objects: decode envelope: %w", err)
	}
	o := New(e.Kind)
	if o == nil {
		return nil, fmt.Errorf("objects: unknown kind %q", e.Kind)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("objects: decode %s: %w", e.Kind, err)
	}
	return o, nil
}

// DecodeKind decodes data into a freshly allocated object of the given kind,
// skipping the envelope sniff — used where the kind is already known from
// context (e.g. a kind-scoped list response).
func DecodeKind(kind string, data []byte) (KubeObject, error) {
	o := New(kind)
	if o == nil {
		return nil, fmt.Errorf("objects: unknown kind %q", kind)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("objects: decode %s: %w", kind, err)
	}
	return o, nil
}
