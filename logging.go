package ninep

import "github.com/sirupsen/logrus"

// Logger is the narrow logging seam a Conn writes through. It is
// satisfied by *logrus.Logger and *logrus.Entry directly. A Config
// itself takes a *logrus.Logger, which connLogger wraps per
// connection.
type Logger interface {
	Printf(format string, args ...interface{})
}

// logrusAdapter lets a *logrus.Entry (which already carries a
// connection's trace id as a field) satisfy Logger.
type logrusAdapter struct {
	entry *logrus.Entry
}

func (l logrusAdapter) Printf(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func newDefaultLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)
	return log
}

// connLogger returns a Logger that tags every line with the
// connection's trace id and remote address, the way conniver tags its
// netfd diagnostics with a connection identity.
func connLogger(base *logrus.Logger, id, remote string) Logger {
	return logrusAdapter{entry: base.WithFields(logrus.Fields{
		"conn":   id,
		"remote": remote,
	})}
}
