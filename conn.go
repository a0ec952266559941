package ninep

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/ioutil"
	"net"
	"sync"
	"time"

	"github.com/hpdsys/ninep/proto"
)

// Conn is one accepted 9P connection: a reactor goroutine that reads
// framed messages off the wire and, for everything but Tversion and
// Tflush, hands them to the Backend on their own goroutine so a slow
// request never blocks the rest of the connection. Replies are
// written back as they complete, in whatever order the Backend
// finishes them in -- 9P imposes no ordering requirement beyond tag
// uniqueness.
type Conn struct {
	id      string
	nc      net.Conn
	backend Backend
	cfg     *Config
	log     Logger

	dec *proto.Decoder
	enc *proto.Encoder
	bw  *bufio.Writer

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint16]context.CancelFunc
	dialect proto.Dialect
	msize   uint32
}

func newConn(nc net.Conn, backend Backend, cfg *Config) *Conn {
	id := newConnID()
	bw := bufio.NewWriter(nc)
	return &Conn{
		id:      id,
		nc:      nc,
		backend: backend,
		cfg:     cfg,
		log:     connLogger(cfg.Logger, id, nc.RemoteAddr().String()),
		dec:     proto.NewDecoder(nc),
		enc:     proto.NewEncoder(bw),
		bw:      bw,
		pending: make(map[uint16]context.CancelFunc),
		dialect: proto.Plain,
		msize:   proto.DefaultMsize,
	}
}

// serve runs the connection's reactor loop until the peer disconnects
// or a framing error forces the connection closed. It blocks until
// the connection is done.
func (c *Conn) serve() {
	defer c.close()
	c.cfg.Metrics.Connections.Inc()
	defer c.cfg.Metrics.Connections.Dec()
	c.log.Printf("connection accepted")

	var wg sync.WaitGroup
	defer wg.Wait()

	for c.dec.Next() {
		m := c.dec.Msg()
		if !c.dispatch(m, &wg) {
			return
		}
	}
	if err := c.dec.Err(); err != nil && !errors.Is(err, io.EOF) {
		c.log.Printf("decode error: %v", err)
	}
}

func (c *Conn) close() {
	c.nc.Close()
	c.mu.Lock()
	for _, cancel := range c.pending {
		cancel()
	}
	c.pending = nil
	c.mu.Unlock()
	c.log.Printf("connection closed")
}

// dispatch handles one decoded message. It returns false when the
// connection must be torn down: a framing error, a duplicate tag, or
// a frame larger than the negotiated msize.
func (c *Conn) dispatch(m proto.Msg, wg *sync.WaitGroup) bool {
	if bad, ok := m.(proto.BadMessage); ok {
		c.log.Printf("malformed message: %v", bad.Err)
		c.cfg.Metrics.Errors.WithLabelValues("framing").Inc()
		if tag := bad.Tag(); tag != proto.NoTag {
			c.writeRerror(tag, toWireError(bad.Err))
			return true
		}
		return false
	}

	// m.Len() excludes size[4] itself, so +4 recovers the complete
	// on-wire frame length, which may not exceed msize.
	if msize := c.currentMsize(); msize > 0 && uint32(m.Len())+4 > msize {
		c.log.Printf("message exceeds negotiated msize")
		return false
	}

	switch t := m.(type) {
	case proto.Tversion:
		c.handleVersion(t)
		return true
	case proto.Tflush:
		c.handleFlush(t)
		return true
	}

	tag := m.Tag()
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return false
	}
	if _, dup := c.pending[tag]; dup {
		c.mu.Unlock()
		c.log.Printf("duplicate tag %d while request still pending, closing connection", tag)
		c.cfg.Metrics.Errors.WithLabelValues("duplicate-tag").Inc()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.pending[tag] = cancel
	c.mu.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer c.finish(tag)
		c.run(ctx, m)
	}()
	return true
}

// finish releases tag's table entry once its request (or its
// cancellation) has been fully handled.
func (c *Conn) finish(tag uint16) {
	c.mu.Lock()
	if c.pending != nil {
		delete(c.pending, tag)
	}
	c.mu.Unlock()
}

func (c *Conn) handleVersion(t proto.Tversion) {
	c.mu.Lock()
	for tag, cancel := range c.pending {
		cancel()
		delete(c.pending, tag)
	}
	c.mu.Unlock()

	msize := t.Msize()
	if msize > c.cfg.MaxSize {
		msize = c.cfg.MaxSize
	}
	_, ok := proto.NegotiateDialect(c.cfg.Dialects, t.Version())
	if !ok {
		c.writeMu.Lock()
		c.enc.WriteRversion(proto.NoTag, msize, "unknown")
		c.bw.Flush()
		c.writeMu.Unlock()
		return
	}

	serverVersion := c.backend.Version(context.Background(), string(t.Version()))
	negotiated, ok := proto.NegotiateDialect(c.cfg.Dialects, []byte(serverVersion))
	if !ok {
		negotiated = proto.Plain
	}

	c.mu.Lock()
	c.dialect = negotiated
	c.msize = msize
	c.mu.Unlock()
	c.dec.Unix = negotiated.Unix
	c.dec.MaxSize = int64(msize)
	c.enc.Unix = negotiated.Unix

	c.log.Printf("version negotiated: %s msize=%d", negotiated.Version, msize)

	c.writeMu.Lock()
	c.enc.WriteRversion(proto.NoTag, msize, negotiated.Version)
	c.bw.Flush()
	c.writeMu.Unlock()
}

func (c *Conn) handleFlush(t proto.Tflush) {
	c.mu.Lock()
	cancel, ok := c.pending[t.Oldtag()]
	c.mu.Unlock()
	if ok {
		cancel()
	}
	c.writeMu.Lock()
	c.enc.WriteRflush(t.Tag())
	c.bw.Flush()
	c.writeMu.Unlock()
}

// run invokes the Backend for a single request and writes its reply.
// If ctx is cancelled (by a concurrent Tflush) before the Backend call
// returns, no reply is written at all: the Tflush's own Rflush already
// told the client oldtag is free to reuse (post-Tflush silence).
func (c *Conn) run(ctx context.Context, m proto.Msg) {
	start := time.Now()
	kind := "unknown"
	defer func() {
		c.cfg.Metrics.RequestLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	tag := m.Tag()
	c.cfg.Metrics.InFlight.Inc()
	defer c.cfg.Metrics.InFlight.Dec()

	switch t := m.(type) {
	case proto.Tauth:
		kind = "Tauth"
		nuname, _ := t.Nuname()
		qid, err := c.backend.Auth(ctx, AuthRequest{
			Afid: t.Afid(), Uname: string(t.Uname()), Aname: string(t.Aname()), Nuname: nuname,
		})
		c.reply(ctx, tag, err, func() { c.enc.WriteRauth(tag, qid) })

	case proto.Tattach:
		kind = "Tattach"
		nuname, _ := t.Nuname()
		qid, err := c.backend.Attach(ctx, AttachRequest{
			Fid: t.Fid(), Afid: t.Afid(), Uname: string(t.Uname()), Aname: string(t.Aname()), Nuname: nuname,
		})
		c.reply(ctx, tag, err, func() { c.enc.WriteRattach(tag, qid) })

	case proto.Twalk:
		kind = "Twalk"
		names := make([]string, t.Nwname())
		for i := range names {
			names[i] = string(t.Wname(i))
		}
		qids, err := c.backend.Walk(ctx, WalkRequest{Fid: t.Fid(), Newfid: t.Newfid(), Names: names})
		if err == nil && len(qids) == 0 && t.Nwname() > 0 {
			// An empty walk result with a non-empty prefix means the
			// first path element didn't exist; newfid is left unbound.
			err = Errorf("No such file!")
		}
		c.reply(ctx, tag, err, func() { c.enc.WriteRwalk(tag, qids) })

	case proto.Topen:
		kind = "Topen"
		qid, iounit, err := c.backend.Open(ctx, OpenRequest{Fid: t.Fid(), Mode: t.Mode()})
		c.reply(ctx, tag, err, func() { c.enc.WriteRopen(tag, qid, iounit) })

	case proto.Tcreate:
		kind = "Tcreate"
		ext, _ := t.Extension()
		qid, iounit, err := c.backend.Create(ctx, CreateRequest{
			Fid: t.Fid(), Name: string(t.Name()), Perm: t.Perm(), Mode: t.Mode(), Extension: string(ext),
		})
		c.reply(ctx, tag, err, func() { c.enc.WriteRcreate(tag, qid, iounit) })

	case proto.Tread:
		kind = "Tread"
		data, err := c.backend.Read(ctx, ReadRequest{Fid: t.Fid(), Offset: t.Offset(), Count: t.Count()})
		c.reply(ctx, tag, err, func() {
			c.enc.WriteRread(tag, data)
			c.cfg.Metrics.BytesRead.Add(float64(len(data)))
		})

	case proto.Twrite:
		kind = "Twrite"
		data, err := ioutil.ReadAll(io.LimitReader(t, int64(t.Count())))
		if err == nil {
			var count uint32
			count, err = c.backend.Write(ctx, WriteRequest{Fid: t.Fid(), Offset: t.Offset(), Data: data})
			c.reply(ctx, tag, err, func() {
				c.enc.WriteRwrite(tag, count)
				c.cfg.Metrics.BytesWritten.Add(float64(count))
			})
		} else {
			c.reply(ctx, tag, err, func() {})
		}

	case proto.Tclunk:
		kind = "Tclunk"
		err := c.backend.Clunk(ctx, t.Fid())
		c.reply(ctx, tag, err, func() { c.enc.WriteRclunk(tag) })

	case proto.Tremove:
		kind = "Tremove"
		err := c.backend.Remove(ctx, t.Fid())
		c.reply(ctx, tag, err, func() { c.enc.WriteRremove(tag) })

	case proto.Tstat:
		kind = "Tstat"
		fi, err := c.backend.Stat(ctx, t.Fid())
		c.reply(ctx, tag, err, func() {
			if c.currentDialect().Unix {
				c.enc.WriteRstat(tag, fi.statU())
			} else {
				c.enc.WriteRstat(tag, fi.stat())
			}
		})

	case proto.Twstat:
		kind = "Twstat"
		want := decodeWstat(t.Stat(), c.currentDialect().Unix)
		err := c.backend.Wstat(ctx, t.Fid(), want)
		c.reply(ctx, tag, err, func() { c.enc.WriteRwstat(tag) })

	default:
		c.writeRerror(tag, Errorf("unsupported message type"))
	}
}

// reply writes either the success frame built by write or, if err is
// non-nil, an Rerror -- unless ctx was cancelled by a concurrent
// Tflush, in which case nothing is written at all.
func (c *Conn) reply(ctx context.Context, tag uint16, err error, write func()) {
	select {
	case <-ctx.Done():
		return
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	select {
	case <-ctx.Done():
		return
	default:
	}
	if err != nil {
		we := toWireError(err)
		c.enc.WriteRerror(tag, we.Ename, we.Errno)
		c.cfg.Metrics.Errors.WithLabelValues("backend").Inc()
	} else {
		write()
	}
	c.bw.Flush()
}

func (c *Conn) writeRerror(tag uint16, err *Error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.enc.WriteRerror(tag, err.Ename, err.Errno)
	c.bw.Flush()
}

func (c *Conn) currentDialect() proto.Dialect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialect
}

func (c *Conn) currentMsize() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.msize
}

// decodeWstat turns the raw Stat/StatU bytes of a Twstat (already
// shape-validated by the decoder) into a FileInfo, leaving sentinel
// "don't touch" fields at their sentinel values so Backend.Wstat can
// tell a client's explicit request apart from a field it simply
// didn't want to change.
func decodeWstat(raw []byte, unix bool) FileInfo {
	if unix {
		s := proto.StatU(raw)
		return FileInfo{
			Mode: s.Mode(), Atime: s.Atime(), Mtime: s.Mtime(), Length: s.Length(),
			Name: string(s.Name()), Uid: string(s.Uid()), Gid: string(s.Gid()), Muid: string(s.Muid()),
			Extension: string(s.Extension()), Nuid: s.NUid(), Ngid: s.NGid(), Nmuid: s.NMuid(),
		}
	}
	s := proto.Stat(raw)
	return FileInfo{
		Mode: s.Mode(), Atime: s.Atime(), Mtime: s.Mtime(), Length: s.Length(),
		Name: string(s.Name()), Uid: string(s.Uid()), Gid: string(s.Gid()), Muid: string(s.Muid()),
	}
}
