package apiserver

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	// No cross-origin restriction: this server has no browser-facing
	// clients, only trusted in-cluster reflectors.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// watchFrame is the wire shape of one frame on a watch stream (§6):
// {"type":"Put","key":"...","object":{...}} or {"type":"Delete","key":"..."}.
type watchFrame struct {
	Type   string `json:"type"`
	Key    string `json:"key"`
	Object any    `json:"object,omitempty"`
}

func (s *Server) watch(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("watch upgrade failed", "kind", kind, "err", err)
			return
		}
		defer conn.Close()

		handle := s.store.Watch(prefixFor(kind))
		defer handle.Stop()

		for ev := range handle.Events() {
			frame := watchFrame{Type: string(ev.Type), Key: ev.Key}
			if ev.Object != nil {
				frame.Object = ev.Object
			}
			data, err := json.Marshal(frame)
			if err != nil {
				s.log.Warn("watch marshal failed", "kind", kind, "err", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Debug("watch write failed, closing", "kind", kind, "err", err)
				return
			}
		}
	}
}
