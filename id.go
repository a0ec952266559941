package ninep

import "github.com/rs/xid"

// newConnID generates a short, sortable, opaque identifier for a
// freshly accepted connection, attached to every log line for that
// connection's lifetime.
func newConnID() string {
	return xid.New().String()
}
