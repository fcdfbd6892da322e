package gpujob

import (
	"testing"

	"github.com/costinm/minik8s/pkg/objects"
)

func TestOwnedPods(t *testing.T) {
	job := &objects.GpuJob{Metadata: objects.Metadata{Name: "train"}}
	owned := &objects.Pod{
		Metadata: objects.Metadata{
			Name:            "train-1",
			OwnerReferences: []objects.OwnerReference{{Kind: objects.KindGpuJob, Name: "train"}},
		},
	}
	other := &objects.Pod{Metadata: objects.Metadata{Name: "other-1"}}

	pods := map[string]objects.KubeObject{owned.URI(): owned, other.URI(): other}
	got := ownedPods(pods, job)
	if len(got) != 1 || got[0].Metadata.Name != "train-1" {
		t.Errorf("ownedPods = %v, want only train-1", got)
	}
}

func TestGpuJobComplete(t *testing.T) {
	job := &objects.GpuJob{Spec: objects.GpuJobSpec{Completions: 3}, Status: objects.GpuJobStatus{Succeeded: 2}}
	if job.Complete() {
		t.Error("expected incomplete job")
	}
	job.Status.Succeeded = 3
	if !job.Complete() {
		t.Error("expected complete job")
	}
}
