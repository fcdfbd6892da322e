package apiserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/costinm/minik8s/pkg/objects"
	"github.com/costinm/minik8s/pkg/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	srv := New(st, nil)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts, st
}

func doJSON(t *testing.T, method, url string, body any) (int, Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, out
}

func TestCreateGetListDelete(t *testing.T) {
	ts, _ := newTestServer(t)

	pod := &objects.Pod{Metadata: objects.Metadata{Name: "a"}, Status: objects.PodStatus{Phase: objects.PodPending}}
	status, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/pods", pod)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", status)
	}

	status, _ = doJSON(t, http.MethodGet, ts.URL+"/api/v1/pods/a", nil)
	if status != http.StatusOK {
		t.Fatalf("get status = %d, want 200", status)
	}

	status, resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/pods", nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d, want 200", status)
	}
	items, _ := resp.Data.([]any)
	if len(items) != 1 {
		t.Fatalf("list returned %d items, want 1", len(items))
	}

	status, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/pods/a", nil)
	if status != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", status)
	}
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/api/v1/pods/a", nil)
	if status != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", status)
	}
}

func TestPatchMergesOneLevelDeep(t *testing.T) {
	ts, _ := newTestServer(t)
	pod := &objects.Pod{
		Metadata: objects.Metadata{Name: "a"},
		Status:   objects.PodStatus{Phase: objects.PodPending, HostIP: "10.0.0.1"},
	}
	if status, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/pods", pod); status != http.StatusCreated {
		t.Fatalf("create failed with status %d", status)
	}

	patch := map[string]any{"status": map[string]any{"phase": "Running"}}
	status, resp := doJSON(t, http.MethodPatch, ts.URL+"/api/v1/pods/a", patch)
	if status != http.StatusOK {
		t.Fatalf("patch status = %d, want 200", status)
	}
	data, _ := json.Marshal(resp.Data)
	var patched objects.Pod
	if err := json.Unmarshal(data, &patched); err != nil {
		t.Fatalf("unmarshal patched pod: %v", err)
	}
	if patched.Status.Phase != objects.PodRunning {
		t.Errorf("patched phase = %q, want Running", patched.Status.Phase)
	}
	if patched.Status.HostIP != "10.0.0.1" {
		t.Errorf("patch must not clobber sibling status fields, got HostIP=%q", patched.Status.HostIP)
	}
}

func TestCreateBindingSetsPodScheduled(t *testing.T) {
	ts, st := newTestServer(t)
	pod := &objects.Pod{Metadata: objects.Metadata{Name: "a"}}
	if err := st.Put(pod.URI(), pod); err != nil {
		t.Fatalf("seed pod: %v", err)
	}

	binding := &objects.Binding{
		Metadata: objects.Metadata{Name: "a"},
		Target:   objects.ObjectReference{Kind: "Node", Name: "n1"},
	}
	status, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/bindings", binding)
	if status != http.StatusCreated {
		t.Fatalf("create binding status = %d, want 201", status)
	}

	got, err := st.Get(pod.URI())
	if err != nil {
		t.Fatalf("get pod: %v", err)
	}
	if !got.(*objects.Pod).IsScheduled() {
		t.Error("expected PodScheduled condition to be set after binding")
	}
}

func TestCreateBindingRejectsNonNodeTarget(t *testing.T) {
	ts, _ := newTestServer(t)
	binding := &objects.Binding{
		Metadata: objects.Metadata{Name: "a"},
		Target:   objects.ObjectReference{Kind: "Pod", Name: "x"},
	}
	status, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/bindings", binding)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}
