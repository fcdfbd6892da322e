package apiserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/costinm/minik8s/pkg/objects"
	"github.com/costinm/minik8s/pkg/store"
)

func (s *Server) list(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		objs, err := s.store.List(prefixFor(kind))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list failed", err)
			return
		}
		writeOK(w, "", objs)
	}
}

func (s *Server) get(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		o, err := s.store.Get(keyFor(kind, name))
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found", err)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "get failed", err)
			return
		}
		writeOK(w, "", o)
	}
}

func (s *Server) create(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := decodeBody(kind, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad request", err)
			return
		}
		if err := s.store.Put(o.URI(), o); err != nil {
			writeError(w, http.StatusInternalServerError, "create failed", err)
			return
		}
		writeCreated(w, "created", o)
	}
}

func (s *Server) replace(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		o, err := decodeBody(kind, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad request", err)
			return
		}
		o.GetMetadata().Name = name
		if err := s.store.Put(keyFor(kind, name), o); err != nil {
			writeError(w, http.StatusInternalServerError, "replace failed", err)
			return
		}
		writeOK(w, "replaced", o)
	}
}

// patch applies a shallow JSON merge-patch over the stored object (see
// mergePatch); it is not a full RFC 7396 merge.
func (s *Server) patch(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		key := keyFor(kind, name)
		current, err := s.store.Get(key)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found", err)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "get failed", err)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad request", err)
			return
		}
		merged, err := mergePatch(current, body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad patch", err)
			return
		}
		if err := s.store.Put(key, merged); err != nil {
			writeError(w, http.StatusInternalServerError, "patch failed", err)
			return
		}
		writeOK(w, "patched", merged)
	}
}

func (s *Server) delete(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		err := s.store.Delete(keyFor(kind, name))
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found", err)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "delete failed", err)
			return
		}
		writeOK(w, "deleted", nil)
	}
}

func decodeBody(kind string, r *http.Request) (objects.KubeObject, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return objects.DecodeKind(kind, body)
}

// mergePatch re-encodes current, applies a shallow JSON merge-patch on top
// (nested objects like spec/status merge one level deep, matching how the
// original handlers accept partial spec/status updates), and decodes back
// into the concrete type.
func mergePatch(current objects.KubeObject, patch []byte) (objects.KubeObject, error) {
	base, err := objects.Encode(current)
	if err != nil {
		return nil, err
	}
	var baseMap, patchMap map[string]json.RawMessage
	if err := json.Unmarshal(base, &baseMap); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patch, &patchMap); err != nil {
		return nil, err
	}
	for k, v := range patchMap {
		baseMap[k] = mergeField(baseMap[k], v)
	}
	merged, err := json.Marshal(baseMap)
	if err != nil {
		return nil, err
	}
	return objects.Decode(merged)
}

func mergeField(base, patch json.RawMessage) json.RawMessage {
	var baseObj, patchObj map[string]json.RawMessage
	if json.Unmarshal(base, &baseObj) != nil || json.Unmarshal(patch, &patchObj) != nil ||
		baseObj == nil || patchObj == nil {
		// Not both objects (scalar/array/null) — patch replaces wholesale.
		return patch
	}
	for k, v := range patchObj {
		baseObj[k] = v
	}
	merged, _ := json.Marshal(baseObj)
	return merged
}
