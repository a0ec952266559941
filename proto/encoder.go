package proto

import (
	"io"

	"github.com/hpdsys/ninep/internal/util"
)

// An Encoder writes 9P messages to an underlying io.Writer, typically
// a *bufio.Writer shared with other connection state so writes can be
// flushed once per batch of replies. Unix selects the 9P2000.u wire
// layout for the handful of message types that carry extra fields
// under that dialect.
type Encoder struct {
	w    util.ErrWriter
	Unix bool
}

// NewEncoder returns an Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: util.ErrWriter{W: w}}
}

// Reset discards any sticky error and begins writing to w.
func (e *Encoder) Reset(w io.Writer) {
	e.w = util.ErrWriter{W: w}
}

// Err returns the first error encountered by any Write* method since
// the Encoder was created or last Reset.
func (e *Encoder) Err() error { return e.w.Err }

// Every Write* method computes size as the complete self-inclusive
// frame length -- size[4] type[1] tag[2] and whatever follows -- since
// that is the literal value the wire's size[4] field carries and what
// the Decoder's fetch reconstructs directly as fieldSize.

func (e *Encoder) WriteTversion(tag uint16, msize uint32, version string) error {
	size := uint32(7 + 4 + 2 + len(version))
	wheader(&e.w, size, msgTversion, tag, msize)
	wstring(&e.w, version)
	return e.w.Err
}

func (e *Encoder) WriteRversion(tag uint16, msize uint32, version string) error {
	size := uint32(7 + 4 + 2 + len(version))
	wheader(&e.w, size, msgRversion, tag, msize)
	wstring(&e.w, version)
	return e.w.Err
}

func (e *Encoder) WriteRauth(tag uint16, aqid Qid) error {
	size := uint32(7 + QidLen)
	wheader(&e.w, size, msgRauth, tag)
	wqid(&e.w, aqid)
	return e.w.Err
}

func (e *Encoder) WriteRattach(tag uint16, qid Qid) error {
	size := uint32(7 + QidLen)
	wheader(&e.w, size, msgRattach, tag)
	wqid(&e.w, qid)
	return e.w.Err
}

// WriteRerror writes an error reply. errno is ignored unless the
// Encoder is in 9P2000.u mode, in which case it is appended after
// ename.
func (e *Encoder) WriteRerror(tag uint16, ename string, errno uint32) error {
	size := uint32(7 + 2 + len(ename))
	if e.Unix {
		size += 4
	}
	wheader(&e.w, size, msgRerror, tag)
	wstring(&e.w, ename)
	if e.Unix {
		wuint32(&e.w, errno)
	}
	return e.w.Err
}

func (e *Encoder) WriteRflush(tag uint16) error {
	wheader(&e.w, 7, msgRflush, tag)
	return e.w.Err
}

func (e *Encoder) WriteRwalk(tag uint16, qids []Qid) error {
	size := uint32(7 + 2 + len(qids)*QidLen)
	wheader(&e.w, size, msgRwalk, tag)
	wuint16(&e.w, uint16(len(qids)))
	wqid(&e.w, qids...)
	return e.w.Err
}

func (e *Encoder) WriteRopen(tag uint16, qid Qid, iounit uint32) error {
	size := uint32(7 + QidLen + 4)
	wheader(&e.w, size, msgRopen, tag)
	wqid(&e.w, qid)
	wuint32(&e.w, iounit)
	return e.w.Err
}

func (e *Encoder) WriteRcreate(tag uint16, qid Qid, iounit uint32) error {
	size := uint32(7 + QidLen + 4)
	wheader(&e.w, size, msgRcreate, tag)
	wqid(&e.w, qid)
	wuint32(&e.w, iounit)
	return e.w.Err
}

// WriteRread writes a reply carrying the bytes read from data. The
// caller is responsible for not exceeding the connection's negotiated
// msize.
func (e *Encoder) WriteRread(tag uint16, data []byte) error {
	size := uint32(7 + 4 + len(data))
	wheader(&e.w, size, msgRread, tag)
	wuint32(&e.w, uint32(len(data)))
	e.w.Write(data)
	return e.w.Err
}

func (e *Encoder) WriteRwrite(tag uint16, count uint32) error {
	size := uint32(7 + 4)
	wheader(&e.w, size, msgRwrite, tag)
	wuint32(&e.w, count)
	return e.w.Err
}

func (e *Encoder) WriteRclunk(tag uint16) error {
	wheader(&e.w, 7, msgRclunk, tag)
	return e.w.Err
}

func (e *Encoder) WriteRremove(tag uint16) error {
	wheader(&e.w, 7, msgRremove, tag)
	return e.w.Err
}

// WriteRstat writes a reply carrying a single, already-encoded Stat
// or StatU record (the inner stat(5) envelope, without the outer
// 2-byte length the message codec itself adds).
func (e *Encoder) WriteRstat(tag uint16, stat []byte) error {
	size := uint32(7 + 2 + len(stat))
	wheader(&e.w, size, msgRstat, tag)
	wbytes(&e.w, stat)
	return e.w.Err
}

func (e *Encoder) WriteRwstat(tag uint16) error {
	wheader(&e.w, 7, msgRwstat, tag)
	return e.w.Err
}
