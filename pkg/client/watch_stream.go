package client

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"

	"github.com/costinm/minik8s/pkg/controller"
	"github.com/costinm/minik8s/pkg/objects"
)

// ListerWatcherFor returns a controller.ListerWatcher for kind backed by
// this client's connection to the object server.
func (c *Client) ListerWatcherFor(kind string) controller.ListerWatcher {
	return &listerWatcher{client: c, kind: kind}
}

type listerWatcher struct {
	client *Client
	kind   string
}

func (lw *listerWatcher) List(ctx context.Context) ([]objects.KubeObject, error) {
	return lw.client.List(ctx, lw.kind)
}

func (lw *listerWatcher) Watch(ctx context.Context) (controller.WatchStream, error) {
	conn, err := lw.client.dialWatch(ctx, lw.kind)
	if err != nil {
		return nil, err
	}
	ws := &watchStream{conn: conn, kind: lw.kind, events: make(chan controller.WatchEvent)}
	go ws.pump()
	return ws, nil
}

type wireFrame struct {
	Type   string          `json:"type"`
	Key    string          `json:"key"`
	Object json.RawMessage `json:"object,omitempty"`
}

type watchStream struct {
	conn   *websocket.Conn
	kind   string
	events chan controller.WatchEvent
}

func (ws *watchStream) Events() <-chan controller.WatchEvent { return ws.events }

func (ws *watchStream) Close() error {
	return ws.conn.Close()
}

// pump reads frames until the connection errors or closes, then closes the
// events channel so the Reflector knows to restart.
func (ws *watchStream) pump() {
	defer close(ws.events)
	for {
		_, data, err := ws.conn.ReadMessage()
		if err != nil {
			return
		}
		var f wireFrame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		ev := controller.WatchEvent{Type: controller.EventType(f.Type), Key: f.Key}
		if f.Type == string(controller.EventPut) {
			o, err := objects.DecodeKind(ws.kind, f.Object)
			if err != nil {
				continue
			}
			ev.Object = o
		}
		ws.events <- ev
	}
}
