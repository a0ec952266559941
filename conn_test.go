package ninep

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/hpdsys/ninep/proto"
)

// fakeBackend is a minimal in-memory Backend for exercising Conn's
// dispatch logic. It is not a filesystem -- it only tracks enough
// state to answer every request type once.
type fakeBackend struct {
	version string
	// block, if non-nil, is waited on inside Read; closing it lets a
	// blocked request proceed. Used to race Tflush/Tversion against a
	// still-running request.
	block chan struct{}
}

func (b *fakeBackend) Version(ctx context.Context, clientVersion string) string {
	if b.version != "" {
		return b.version
	}
	return clientVersion
}

func (b *fakeBackend) Auth(ctx context.Context, r AuthRequest) (proto.Qid, error) {
	return mkqid(proto.QTAUTH, 0, 1), nil
}

func (b *fakeBackend) Attach(ctx context.Context, r AttachRequest) (proto.Qid, error) {
	return mkqid(proto.QTDIR, 0, 2), nil
}

func (b *fakeBackend) Walk(ctx context.Context, r WalkRequest) ([]proto.Qid, error) {
	if len(r.Names) > 0 && r.Names[0] == "nope" {
		return nil, nil
	}
	qids := make([]proto.Qid, len(r.Names))
	for i := range qids {
		qids[i] = mkqid(proto.QTFILE, 0, uint64(3+i))
	}
	return qids, nil
}

func (b *fakeBackend) Open(ctx context.Context, r OpenRequest) (proto.Qid, uint32, error) {
	return mkqid(proto.QTFILE, 0, 3), 4096, nil
}

func (b *fakeBackend) Create(ctx context.Context, r CreateRequest) (proto.Qid, uint32, error) {
	return mkqid(proto.QTFILE, 0, 4), 4096, nil
}

func (b *fakeBackend) Read(ctx context.Context, r ReadRequest) ([]byte, error) {
	if b.block != nil {
		select {
		case <-b.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []byte("hello"), nil
}

func (b *fakeBackend) Write(ctx context.Context, r WriteRequest) (uint32, error) {
	return uint32(len(r.Data)), nil
}

func (b *fakeBackend) Clunk(ctx context.Context, fid uint32) error  { return nil }
func (b *fakeBackend) Remove(ctx context.Context, fid uint32) error { return nil }

func (b *fakeBackend) Stat(ctx context.Context, fid uint32) (FileInfo, error) {
	return FileInfo{Qid: mkqid(proto.QTFILE, 0, 5), Name: "foo", Length: 5}, nil
}

func (b *fakeBackend) Wstat(ctx context.Context, fid uint32, want FileInfo) error {
	return nil
}

func mkqid(t proto.QidType, version uint32, path uint64) proto.Qid {
	var buf [proto.QidLen]byte
	q, _, _ := proto.NewQid(buf[:], t, version, path)
	return q
}

// The test suite only needs to send T-messages, which is the half of
// the codec this package deliberately doesn't expose an Encoder for
// (the client-side codec is out of scope). These small helpers build
// raw frames by hand instead.

func u16(v uint16) []byte { b := make([]byte, 2); binary.LittleEndian.PutUint16(b, v); return b }
func u32(v uint32) []byte { b := make([]byte, 4); binary.LittleEndian.PutUint32(b, v); return b }
func u64(v uint64) []byte { b := make([]byte, 8); binary.LittleEndian.PutUint64(b, v); return b }
func pstr(s string) []byte { return append(u16(uint16(len(s))), []byte(s)...) }

func frame(mtype uint8, tag uint16, body []byte) []byte {
	out := append(u32(0), mtype)
	out = append(out, u16(tag)...)
	out = append(out, body...)
	binary.LittleEndian.PutUint32(out[:4], uint32(len(out)))
	return out
}

func tversionFrame(tag uint16, msize uint32, version string) []byte {
	return frame(100, tag, append(u32(msize), pstr(version)...))
}

func tattachFrame(tag uint16, fid, afid uint32, uname, aname string) []byte {
	body := append(u32(fid), u32(afid)...)
	body = append(body, pstr(uname)...)
	body = append(body, pstr(aname)...)
	return frame(104, tag, body)
}

func treadFrame(tag uint16, fid uint32, offset uint64, count uint32) []byte {
	body := append(u32(fid), u64(offset)...)
	body = append(body, u32(count)...)
	return frame(116, tag, body)
}

func tflushFrame(tag, oldtag uint16) []byte {
	return frame(108, tag, u16(oldtag))
}

func twalkFrame(tag uint16, fid, newfid uint32, wname ...string) []byte {
	body := append(u32(fid), u32(newfid)...)
	body = append(body, u16(uint16(len(wname)))...)
	for _, name := range wname {
		body = append(body, pstr(name)...)
	}
	return frame(110, tag, body)
}

// dial spins up a Conn over an in-process net.Pipe, returning the
// client's end and a stop func.
func dial(t *testing.T, backend Backend, opts ...Option) (net.Conn, func()) {
	t.Helper()
	client, server := net.Pipe()
	cfg := NewConfig(opts...)
	c := newConn(server, backend, cfg)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.serve()
	}()
	return client, func() {
		client.Close()
		<-done
	}
}

func version(t *testing.T, client net.Conn, dec *proto.Decoder, msize uint32, v string) proto.Rversion {
	t.Helper()
	if _, err := client.Write(tversionFrame(proto.NoTag, msize, v)); err != nil {
		t.Fatalf("write Tversion: %v", err)
	}
	if !dec.Next() {
		t.Fatalf("Next: %v", dec.Err())
	}
	rv, ok := dec.Msg().(proto.Rversion)
	if !ok {
		t.Fatalf("got %T, want Rversion", dec.Msg())
	}
	return rv
}

func TestVersionThenAttach(t *testing.T) {
	client, stop := dial(t, &fakeBackend{})
	defer stop()
	dec := proto.NewDecoder(client)

	rv := version(t, client, dec, 8192, "9P2000")
	if string(rv.Version()) != "9P2000" {
		t.Fatalf("Version() = %q, want 9P2000", rv.Version())
	}

	if _, err := client.Write(tattachFrame(1, 0, proto.NoFid, "glenda", "")); err != nil {
		t.Fatalf("write Tattach: %v", err)
	}
	if !dec.Next() {
		t.Fatalf("Next: %v", dec.Err())
	}
	ra, ok := dec.Msg().(proto.Rattach)
	if !ok {
		t.Fatalf("got %T, want Rattach", dec.Msg())
	}
	if ra.Tag() != 1 {
		t.Errorf("Tag() = %d, want 1", ra.Tag())
	}
}

func TestDuplicateTagClosesConnection(t *testing.T) {
	backend := &fakeBackend{block: make(chan struct{})}
	client, stop := dial(t, backend)
	defer stop()
	dec := proto.NewDecoder(client)
	version(t, client, dec, 8192, "9P2000")

	// Tag 1 blocks inside Backend.Read until we close backend.block.
	if _, err := client.Write(treadFrame(1, 7, 0, 10)); err != nil {
		t.Fatalf("write Tread: %v", err)
	}
	// A second request reusing tag 1 while the first is still
	// in-flight is a protocol violation: the connection must close.
	if _, err := client.Write(treadFrame(1, 7, 0, 10)); err != nil {
		t.Fatalf("write Tread: %v", err)
	}
	close(backend.block)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !dec.Next() {
			return // connection closed, as required
		}
	}
	t.Fatalf("connection did not close after duplicate tag")
}

func TestFlushReleasesTagBeforeBackendReturns(t *testing.T) {
	backend := &fakeBackend{block: make(chan struct{})}
	client, stop := dial(t, backend)
	defer stop()
	dec := proto.NewDecoder(client)
	version(t, client, dec, 8192, "9P2000")

	if _, err := client.Write(treadFrame(9, 7, 0, 10)); err != nil {
		t.Fatalf("write Tread: %v", err)
	}
	if _, err := client.Write(tflushFrame(2, 9)); err != nil {
		t.Fatalf("write Tflush: %v", err)
	}

	if !dec.Next() {
		t.Fatalf("Next: %v", dec.Err())
	}
	rf, ok := dec.Msg().(proto.Rflush)
	if !ok {
		t.Fatalf("got %T, want Rflush (the blocked Tread must not reply first)", dec.Msg())
	}
	if rf.Tag() != 2 {
		t.Errorf("Tag() = %d, want 2", rf.Tag())
	}
	close(backend.block)
}

func TestVersionResetsInFlightWork(t *testing.T) {
	backend := &fakeBackend{block: make(chan struct{})}
	client, stop := dial(t, backend)
	defer stop()
	dec := proto.NewDecoder(client)
	version(t, client, dec, 8192, "9P2000")

	if _, err := client.Write(treadFrame(5, 7, 0, 10)); err != nil {
		t.Fatalf("write Tread: %v", err)
	}

	// Renegotiating the version cancels the still-blocked Tread
	// instead of waiting for it; no Rread for tag 5 should ever
	// arrive, only the Rversion.
	rv := version(t, client, dec, 8192, "9P2000")
	if string(rv.Version()) != "9P2000" {
		t.Fatalf("Version() = %q, want 9P2000", rv.Version())
	}
	close(backend.block)
}

func TestWalkEmptyPrefixIsError(t *testing.T) {
	client, stop := dial(t, &fakeBackend{})
	defer stop()
	dec := proto.NewDecoder(client)
	version(t, client, dec, 8192, "9P2000")

	if _, err := client.Write(twalkFrame(3, 0, 1, "nope")); err != nil {
		t.Fatalf("write Twalk: %v", err)
	}
	if !dec.Next() {
		t.Fatalf("Next: %v", dec.Err())
	}
	re, ok := dec.Msg().(proto.Rerror)
	if !ok {
		t.Fatalf("got %T, want Rerror", dec.Msg())
	}
	if re.Tag() != 3 {
		t.Errorf("Tag() = %d, want 3", re.Tag())
	}
	if string(re.Ename()) != "No such file!" {
		t.Errorf("Ename() = %q, want %q", re.Ename(), "No such file!")
	}
}

func TestWalkZeroNwnameBindsSameNode(t *testing.T) {
	client, stop := dial(t, &fakeBackend{})
	defer stop()
	dec := proto.NewDecoder(client)
	version(t, client, dec, 8192, "9P2000")

	if _, err := client.Write(twalkFrame(4, 0, 1)); err != nil {
		t.Fatalf("write Twalk: %v", err)
	}
	if !dec.Next() {
		t.Fatalf("Next: %v", dec.Err())
	}
	rw, ok := dec.Msg().(proto.Rwalk)
	if !ok {
		t.Fatalf("got %T, want Rwalk", dec.Msg())
	}
	if rw.Tag() != 4 {
		t.Errorf("Tag() = %d, want 4", rw.Tag())
	}
	if n := rw.Nwqid(); n != 0 {
		t.Errorf("Nwqid() = %d, want 0", n)
	}
}

func TestUnknownDialectFallsBackToUnknown(t *testing.T) {
	client, stop := dial(t, &fakeBackend{})
	defer stop()
	dec := proto.NewDecoder(client)

	rv := version(t, client, dec, 8192, "9P3000")
	if string(rv.Version()) != "unknown" {
		t.Errorf("Version() = %q, want unknown", rv.Version())
	}
}
