package ninep

import (
	"net"
	"testing"

	"github.com/hpdsys/ninep/proto"
)

func TestServeAcceptsConnectionsAndNegotiatesVersion(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	srv := NewServer(&fakeBackend{})
	go srv.Serve(l)
	defer l.Close()

	conn, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write(tversionFrame(proto.NoTag, 8192, "9P2000")); err != nil {
		t.Fatalf("write Tversion: %v", err)
	}
	dec := proto.NewDecoder(conn)
	if !dec.Next() {
		t.Fatalf("Next: %v", dec.Err())
	}
	rv, ok := dec.Msg().(proto.Rversion)
	if !ok {
		t.Fatalf("got %T, want Rversion", dec.Msg())
	}
	if string(rv.Version()) != "9P2000" {
		t.Errorf("Version() = %q, want 9P2000", rv.Version())
	}
}
