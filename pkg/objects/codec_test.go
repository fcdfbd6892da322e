package objects

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	pod := &Pod{
		Metadata: Metadata{Name: "web-1", Labels: map[string]string{"app": "web"}},
		Spec:     PodSpec{Containers: []Container{{Name: "c", Image: "nginx"}}},
		Status:   PodStatus{Phase: PodRunning},
	}

	data, err := Encode(pod)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	got, ok := decoded.(*Pod)
	if !ok {
		t.Fatalf("Decode returned %T, want *Pod", decoded)
	}
	if diff := cmp.Diff(pod, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode([]byte(`{"kind":"Bogus"}`))
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestURIInjective(t *testing.T) {
	a := (&Pod{Metadata: Metadata{Name: "a"}}).URI()
	b := (&Node{Metadata: Metadata{Name: "a"}}).URI()
	if a == b {
		t.Fatalf("Pod and Node URIs collided: %s", a)
	}
}

func TestLabelsSupersetOf(t *testing.T) {
	m := Metadata{Labels: map[string]string{"app": "web", "tier": "front"}}

	if m.LabelsSupersetOf(nil) {
		t.Error("empty selector must not match (B3)")
	}
	if !m.LabelsSupersetOf(map[string]string{"app": "web"}) {
		t.Error("expected subset selector to match")
	}
	if m.LabelsSupersetOf(map[string]string{"app": "other"}) {
		t.Error("mismatched value must not match")
	}
}
