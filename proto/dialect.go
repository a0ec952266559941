package proto

import "bytes"

// A Dialect names one of the protocol variants this package can speak:
// either plain 9P2000 or its 9P2000.u extension. It is selected once
// per connection, during the Tversion exchange, and then governs how
// Tauth/Tattach/Tcreate/Rerror/Stat are read and written for the rest
// of the connection's life.
type Dialect struct {
	Version string // the exact version string to offer in Rversion
	Unix    bool   // true for 9P2000.u
}

// Plain is the baseline 9P2000 dialect.
var Plain = Dialect{Version: "9P2000"}

// Unix is the 9P2000.u dialect.
var Unix = Dialect{Version: "9P2000.u", Unix: true}

// Dialects is the set of dialects a Decoder/Encoder can be configured
// to speak, most to least capable.
var Dialects = []Dialect{Unix, Plain}

// NegotiateDialect picks the best dialect from offered that the
// client's requested version string is compatible with. A client
// requesting exactly "9P2000.u" gets Unix; a client requesting
// "9P2000" or any other string beginning with "9P2000" gets Plain if
// it is offered.
// The second return value is false if no dialect in offered is
// compatible with clientVersion at all, in which case the caller
// should reply Rversion with version "unknown".
func NegotiateDialect(offered []Dialect, clientVersion []byte) (Dialect, bool) {
	for _, d := range offered {
		if bytes.Equal(clientVersion, []byte(d.Version)) {
			return d, true
		}
	}
	// A client that asks for an unknown variant of 9P2000 is still
	// compatible with plain 9P2000, per the reference protocol's own
	// fallback behavior.
	if bytes.HasPrefix(clientVersion, []byte("9P2000")) {
		for _, d := range offered {
			if !d.Unix {
				return d, true
			}
		}
	}
	return Dialect{}, false
}
