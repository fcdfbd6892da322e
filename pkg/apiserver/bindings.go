package apiserver

import (
	"errors"
	"net/http"

	"github.com/costinm/minik8s/pkg/objects"
	"github.com/costinm/minik8s/pkg/store"
)

// createBinding implements §4.4's bespoke rule: writing a Binding also sets
// the target pod's PodScheduled condition — the scheduler itself never
// writes the pod directly.
func (s *Server) createBinding(w http.ResponseWriter, r *http.Request) {
	o, err := decodeBody(objects.KindBinding, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad request", err)
		return
	}
	b := o.(*objects.Binding)
	if b.Target.Kind != "Node" {
		writeError(w, http.StatusBadRequest, "bad request", errors.New("binding target must be a Node"))
		return
	}

	podKey := "/api/v1/pods/" + b.Metadata.Name
	podObj, err := s.store.Get(podKey)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "pod not found", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get pod failed", err)
		return
	}
	pod := podObj.(*objects.Pod)
	if pod.Status.Conditions == nil {
		pod.Status.Conditions = map[objects.ConditionType]objects.Condition{}
	}
	pod.Status.Conditions[objects.PodScheduled] = objects.Condition{Status: true}

	if err := s.store.Put(podKey, pod); err != nil {
		writeError(w, http.StatusInternalServerError, "update pod failed", err)
		return
	}
	if err := s.store.Put(b.URI(), b); err != nil {
		writeError(w, http.StatusInternalServerError, "create binding failed", err)
		return
	}
	writeCreated(w, "bound", b)
}
