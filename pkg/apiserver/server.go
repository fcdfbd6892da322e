// Package apiserver implements the HTTP object server (§6): a bit-exact
// REST + watch surface in front of the pkg/store key-value store. Parsing,
// routing and status codes follow the table in spec §6; the bespoke
// binding-triggers-pod-mutation rule (§4.4) is implemented in bindings.go.
package apiserver

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/costinm/minik8s/pkg/objects"
	"github.com/costinm/minik8s/pkg/store"
)

// Server wires the object store to the HTTP API named in §6.
type Server struct {
	store *store.Store
	log   *slog.Logger
	mux   *mux.Router
}

// Kinds handled with generic CRUD + watch; Binding gets its own Create route
// (bindings.go) since POST /api/v1/bindings is special-cased by the spec.
var kinds = []string{
	objects.KindPod,
	objects.KindNode,
	objects.KindService,
	objects.KindReplicaSet,
	objects.KindHPA,
	objects.KindGpuJob,
	objects.KindFunction,
	objects.KindIngress,
	objects.KindWorkflow,
}

// New builds a Server and registers every route.
func New(st *store.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{store: st, log: log, mux: mux.NewRouter()}
	for _, k := range kinds {
		s.registerKind(k)
	}
	s.mux.HandleFunc("/api/v1/bindings", s.createBinding).Methods(http.MethodPost)
	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) registerKind(kind string) {
	plural := objects.Plural(kind)
	base := "/api/v1/" + plural
	s.mux.HandleFunc(base, s.list(kind)).Methods(http.MethodGet)
	s.mux.HandleFunc(base, s.create(kind)).Methods(http.MethodPost)
	s.mux.HandleFunc(base+"/{name}", s.get(kind)).Methods(http.MethodGet)
	s.mux.HandleFunc(base+"/{name}", s.replace(kind)).Methods(http.MethodPut)
	s.mux.HandleFunc(base+"/{name}", s.patch(kind)).Methods(http.MethodPatch)
	s.mux.HandleFunc(base+"/{name}", s.delete(kind)).Methods(http.MethodDelete)
	s.mux.HandleFunc("/api/v1/watch/"+plural, s.watch(kind))
}

func keyFor(kind, name string) string {
	return "/api/v1/" + objects.Plural(kind) + "/" + name
}

func prefixFor(kind string) string {
	return "/api/v1/" + objects.Plural(kind) + "/"
}
