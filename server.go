package ninep

import (
	"net"
	"runtime"
	"time"

	"aqwari.net/retry"
)

// Server accepts 9P connections and dispatches their requests to a
// Backend. The zero Server is not usable; build one with NewServer.
type Server struct {
	Backend Backend
	cfg     *Config
}

// NewServer returns a Server that dispatches every accepted connection
// to backend, configured by opts.
func NewServer(backend Backend, opts ...Option) *Server {
	return &Server{Backend: backend, cfg: NewConfig(opts...)}
}

// ListenAndServe listens on the TCP network address addr and then
// calls Serve to handle incoming connections.
func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts connections on l in a loop, handing each one to its
// own goroutine, until Accept returns a non-temporary error. Transient
// Accept errors (a momentary file-descriptor exhaustion, say) are
// retried with exponential backoff instead of giving up the listener.
func (s *Server) Serve(l net.Listener) error {
	type tempErr interface {
		Temporary() bool
	}
	backoff := retry.Exponential(time.Millisecond).Max(time.Second)
	try := 0

	for {
		rwc, err := l.Accept()
		if err != nil {
			if te, ok := err.(tempErr); ok && te.Temporary() {
				try++
				wait := backoff(try)
				s.cfg.Logger.Printf("accept error: %v; retrying in %v", err, wait)
				time.Sleep(wait)
				continue
			}
			return err
		}
		try = 0
		c := newConn(rwc, s.Backend, s.cfg)
		go s.serveConn(c)
	}
}

func (s *Server) serveConn(c *Conn) {
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			c.log.Printf("panic serving connection: %v\n%s", r, buf)
			c.cfg.Metrics.Errors.WithLabelValues("panic").Inc()
			c.nc.Close()
		}
	}()
	c.serve()
}
