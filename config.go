package ninep

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/hpdsys/ninep/proto"
)

// Config controls the policy of a Server: the msize ceiling it will
// negotiate down to, which dialects it is willing to speak, and where
// its logs and metrics go. The zero Config is not usable; build one
// with NewConfig, which fills in DefaultMsize, both dialects, a
// default logrus.Logger, and a Metrics registered with a fresh
// prometheus.Registry, and adjust it with a chain of Option funcs, in the
// teacher's Server-field style generalized into explicit options so a
// program doesn't need to reach past this package to configure
// logging or metrics.
type Config struct {
	MaxSize  uint32
	Dialects []proto.Dialect
	Logger   *logrus.Logger
	Metrics  *Metrics
}

// Option configures a Config.
type Option func(*Config)

// WithMaxSize sets the largest msize the server will ever negotiate,
// regardless of what a client proposes.
func WithMaxSize(n uint32) Option {
	return func(c *Config) { c.MaxSize = n }
}

// WithDialects restricts the dialects a Server will negotiate, most
// to least preferred. The default is every dialect this package knows.
func WithDialects(d ...proto.Dialect) Option {
	return func(c *Config) { c.Dialects = d }
}

// WithLogger sets the structured logger used for connection and
// request lifecycle events.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMetrics sets the Metrics a Server updates. Use NewMetrics to
// register its collectors with a specific prometheus.Registerer.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) { c.Metrics = m }
}

// NewConfig builds a Config from a sequence of Options, filling in
// defaults for anything left unset.
func NewConfig(opts ...Option) *Config {
	c := &Config{
		MaxSize:  proto.DefaultMsize,
		Dialects: proto.Dialects,
		Logger:   newDefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Metrics == nil {
		c.Metrics = NewMetrics(prometheus.NewRegistry())
	}
	return c
}
