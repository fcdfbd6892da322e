package client

import "errors"

// ErrNotFound mirrors store.ErrNotFound on the client side of the wire.
var ErrNotFound = errors.New("client: not found")
