// Package client is the HTTP/WS client side of the object server: it
// implements controller.ListerWatcher against the REST surface in §6 and
// is also the thin CRUD client every control loop uses to write back
// reconciled state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/costinm/minik8s/pkg/apiserver"
	"github.com/costinm/minik8s/pkg/objects"
)

// Client talks to one object server over HTTP (CRUD) and WebSocket (watch).
type Client struct {
	BaseURL  string // e.g. http://localhost:8080
	WatchURL string // e.g. ws://localhost:8080
	HTTP     *http.Client
}

// New builds a Client. A 30s timeout matches the recommended outbound HTTP
// timeout in §5.
func New(baseURL, watchURL string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		WatchURL: strings.TrimRight(watchURL, "/"),
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*apiserver.Response, int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	var out apiserver.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		return nil, resp.StatusCode, err
	}
	return &out, resp.StatusCode, nil
}

// List fetches every object of kind.
func (c *Client) List(ctx context.Context, kind string) ([]objects.KubeObject, error) {
	path := "/api/v1/" + objects.Plural(kind)
	resp, status, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("client: list %s: %s (%d)", kind, resp.Cause, status)
	}
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]objects.KubeObject, 0, len(items))
	for _, item := range items {
		o, err := objects.DecodeKind(kind, item)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// Get fetches one object by name.
func (c *Client) Get(ctx context.Context, kind, name string) (objects.KubeObject, error) {
	path := "/api/v1/" + objects.Plural(kind) + "/" + name
	resp, status, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("client: %s/%s: %w", kind, name, ErrNotFound)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("client: get %s/%s: %s (%d)", kind, name, resp.Cause, status)
	}
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, err
	}
	return objects.DecodeKind(kind, raw)
}

// Create POSTs a new object.
func (c *Client) Create(ctx context.Context, obj objects.KubeObject) error {
	path := "/api/v1/" + objects.Plural(obj.Kind())
	resp, status, err := c.do(ctx, http.MethodPost, path, obj)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("client: create %s: %s (%d)", obj.Kind(), resp.Cause, status)
	}
	return nil
}

// Put replaces an existing object.
func (c *Client) Put(ctx context.Context, obj objects.KubeObject) error {
	path := "/api/v1/" + objects.Plural(obj.Kind()) + "/" + obj.GetMetadata().Name
	resp, status, err := c.do(ctx, http.MethodPut, path, obj)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("client: put %s/%s: %s (%d)", obj.Kind(), obj.GetMetadata().Name, resp.Cause, status)
	}
	return nil
}

// Delete removes an object by kind/name.
func (c *Client) Delete(ctx context.Context, kind, name string) error {
	path := "/api/v1/" + objects.Plural(kind) + "/" + name
	resp, status, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return ErrNotFound
	}
	if status != http.StatusOK {
		return fmt.Errorf("client: delete %s/%s: %s (%d)", kind, name, resp.Cause, status)
	}
	return nil
}

// CreateBinding POSTs a Binding, the one non-generic write in §6.
func (c *Client) CreateBinding(ctx context.Context, b *objects.Binding) error {
	resp, status, err := c.do(ctx, http.MethodPost, "/api/v1/bindings", b)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("client: create binding %s: %s (%d)", b.Metadata.Name, resp.Cause, status)
	}
	return nil
}

// dialWatch opens the websocket watch stream for kind. Read timeout is left
// at zero (blocking), per §5; the caller is expected to run this in its own
// goroutine and treat any read error as a signal to relist.
func (c *Client) dialWatch(ctx context.Context, kind string) (*websocket.Conn, error) {
	url := c.WatchURL + "/api/v1/watch/" + objects.Plural(kind)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("client: dial watch %s: %w", kind, err)
	}
	return conn, nil
}
