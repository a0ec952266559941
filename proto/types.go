package proto

import (
	"bytes"
	"fmt"
	"io"
)

// Tversion negotiates the protocol version and message size for a
// connection. It must be the first message on a connection, and no
// other request may be outstanding while it is processed.
type Tversion msg

func (m Tversion) Tag() uint16     { return msg(m).Tag() }
func (m Tversion) Len() int64      { return msg(m).Len() }
func (m Tversion) Msize() uint32   { return guint32(m[7:11]) }
func (m Tversion) Version() []byte { return msg(m).nthField(11, 0) }
func (m Tversion) String() string {
	return fmt.Sprintf("Tversion msize=%d version=%q", m.Msize(), m.Version())
}

// Rversion answers a Tversion with the version and msize the server
// has chosen to use for the rest of the connection.
type Rversion msg

func (m Rversion) Tag() uint16     { return msg(m).Tag() }
func (m Rversion) Len() int64      { return msg(m).Len() }
func (m Rversion) Msize() uint32   { return guint32(m[7:11]) }
func (m Rversion) Version() []byte { return msg(m).nthField(11, 0) }
func (m Rversion) String() string {
	return fmt.Sprintf("Rversion msize=%d version=%q", m.Msize(), m.Version())
}

// Tauth requests that a client be allowed to authenticate over afid
// before attaching. 9P2000.u additionally carries the client's numeric
// uid as n_uname, so a server need not resolve uname through a
// directory service.
type Tauth msg

func (m Tauth) Tag() uint16     { return msg(m).Tag() }
func (m Tauth) Len() int64      { return msg(m).Len() }
func (m Tauth) Afid() uint32    { return guint32(m[7:11]) }
func (m Tauth) Uname() []byte   { return msg(m).nthField(11, 0) }
func (m Tauth) Aname() []byte   { return msg(m).nthField(11, 1) }

// Nuname returns the 9P2000.u n_uname field and true if the message
// was parsed under the 9P2000.u dialect.
func (m Tauth) Nuname() (uint32, bool) {
	_, next := msg(m).nthFieldAt(11, 1)
	if len(m)-next == 4 {
		return guint32(m[next : next+4]), true
	}
	return 0, false
}

func (m Tauth) String() string {
	return fmt.Sprintf("Tauth afid=%x uname=%q aname=%q", m.Afid(), m.Uname(), m.Aname())
}

// Rauth answers a Tauth with the qid of the authentication file the
// client should now perform I/O against.
type Rauth msg

func (m Rauth) Tag() uint16  { return msg(m).Tag() }
func (m Rauth) Len() int64   { return msg(m).Len() }
func (m Rauth) Aqid() Qid    { return Qid(m[7 : 7+QidLen]) }
func (m Rauth) String() string { return fmt.Sprintf("Rauth aqid=%v", m.Aqid()) }

// Tattach introduces a user to the file tree served by the server and
// establishes fid as the root of that tree.
type Tattach msg

func (m Tattach) Tag() uint16   { return msg(m).Tag() }
func (m Tattach) Len() int64    { return msg(m).Len() }
func (m Tattach) Fid() uint32   { return guint32(m[7:11]) }
func (m Tattach) Afid() uint32  { return guint32(m[11:15]) }
func (m Tattach) Uname() []byte { return msg(m).nthField(15, 0) }
func (m Tattach) Aname() []byte { return msg(m).nthField(15, 1) }

// Nuname returns the 9P2000.u n_uname field and true if the message
// was parsed under the 9P2000.u dialect.
func (m Tattach) Nuname() (uint32, bool) {
	_, next := msg(m).nthFieldAt(15, 1)
	if len(m)-next == 4 {
		return guint32(m[next : next+4]), true
	}
	return 0, false
}

func (m Tattach) String() string {
	return fmt.Sprintf("Tattach fid=%x afid=%x uname=%q aname=%q", m.Fid(), m.Afid(), m.Uname(), m.Aname())
}

// Rattach answers a Tattach with the qid of the root of the attached
// tree.
type Rattach msg

func (m Rattach) Tag() uint16    { return msg(m).Tag() }
func (m Rattach) Len() int64     { return msg(m).Len() }
func (m Rattach) Qid() Qid       { return Qid(m[7 : 7+QidLen]) }
func (m Rattach) String() string { return fmt.Sprintf("Rattach qid=%v", m.Qid()) }

// Rerror reports that a request could not be completed. 9P2000.u
// appends a numeric errno after the human-readable ename.
type Rerror msg

func (m Rerror) Tag() uint16  { return msg(m).Tag() }
func (m Rerror) Len() int64   { return msg(m).Len() }
func (m Rerror) Ename() []byte { return msg(m).nthField(7, 0) }

// Errno returns the 9P2000.u numeric error code and true if one was
// present on the wire.
func (m Rerror) Errno() (uint32, bool) {
	_, next := msg(m).nthFieldAt(7, 0)
	if len(m)-next == 4 {
		return guint32(m[next : next+4]), true
	}
	return 0, false
}

func (m Rerror) Error() string  { return string(m.Ename()) }
func (m Rerror) String() string { return fmt.Sprintf("Rerror ename=%q", m.Ename()) }

// Tflush cancels the pending request tagged oldtag. The server must
// answer with Rflush once it is safe to reuse oldtag, which may happen
// before the original request's own reply (if any) is sent.
type Tflush msg

func (m Tflush) Tag() uint16    { return msg(m).Tag() }
func (m Tflush) Len() int64     { return msg(m).Len() }
func (m Tflush) Oldtag() uint16 { return guint16(m[7:9]) }
func (m Tflush) String() string { return fmt.Sprintf("Tflush oldtag=%x", m.Oldtag()) }

// Rflush answers a Tflush once oldtag has been released.
type Rflush msg

func (m Rflush) Tag() uint16    { return msg(m).Tag() }
func (m Rflush) Len() int64     { return msg(m).Len() }
func (m Rflush) String() string { return "Rflush" }

// Twalk checks for the existence of a path of filenames starting at
// fid, binding the result to newfid if every element exists.
type Twalk msg

func (m Twalk) Tag() uint16        { return msg(m).Tag() }
func (m Twalk) Len() int64         { return msg(m).Len() }
func (m Twalk) Fid() uint32        { return guint32(m[7:11]) }
func (m Twalk) Newfid() uint32     { return guint32(m[11:15]) }
func (m Twalk) Nwname() int        { return int(guint16(m[15:17])) }
func (m Twalk) Wname(n int) []byte { return msg(m).nthField(17, n) }

func (m Twalk) String() string {
	names := make([][]byte, m.Nwname())
	for i := range names {
		names[i] = m.Wname(i)
	}
	return fmt.Sprintf("Twalk fid=%x newfid=%x wname=%q", m.Fid(), m.Newfid(), bytes.Join(names, []byte("/")))
}

// Rwalk answers a Twalk with one qid per path element successfully
// walked. A short Rwalk (fewer qids than requested) means the walk
// stopped at a nonexistent element and newfid was not bound.
type Rwalk msg

func (m Rwalk) Tag() uint16       { return msg(m).Tag() }
func (m Rwalk) Len() int64        { return msg(m).Len() }
func (m Rwalk) Nwqid() int        { return int(guint16(m[7:9])) }
func (m Rwalk) Wqid(n int) Qid    { return Qid(m[9+n*QidLen : 9+(n+1)*QidLen]) }

func (m Rwalk) String() string {
	qids := make([]string, m.Nwqid())
	for i := range qids {
		qids[i] = m.Wqid(i).String()
	}
	return fmt.Sprintf("Rwalk wqid=%v", qids)
}

// Topen requests that an existing file be prepared for I/O under the
// given mode (one of the O* open flags).
type Topen msg

func (m Topen) Tag() uint16 { return msg(m).Tag() }
func (m Topen) Len() int64  { return msg(m).Len() }
func (m Topen) Fid() uint32 { return guint32(m[7:11]) }
func (m Topen) Mode() uint8 { return m[11] }
func (m Topen) String() string {
	return fmt.Sprintf("Topen fid=%x mode=%#o", m.Fid(), m.Mode())
}

// Ropen answers a Topen with the qid of the now-open file and a hint
// for the largest I/O size that can be serviced without fragmentation.
type Ropen msg

func (m Ropen) Tag() uint16    { return msg(m).Tag() }
func (m Ropen) Len() int64     { return msg(m).Len() }
func (m Ropen) Qid() Qid       { return Qid(m[7 : 7+QidLen]) }
func (m Ropen) IOunit() uint32 { return guint32(m[7+QidLen : 11+QidLen]) }
func (m Ropen) String() string {
	return fmt.Sprintf("Ropen qid=%v iounit=%d", m.Qid(), m.IOunit())
}

// Tcreate requests that a new file named Name be created in the
// directory fid, then opened under mode. 9P2000.u appends an
// extension string carrying symlink targets and device-file
// major/minor numbers.
type Tcreate msg

func (m Tcreate) Tag() uint16  { return msg(m).Tag() }
func (m Tcreate) Len() int64   { return msg(m).Len() }
func (m Tcreate) Fid() uint32  { return guint32(m[7:11]) }
func (m Tcreate) Name() []byte { return msg(m).nthField(11, 0) }
func (m Tcreate) Perm() uint32 {
	off := 11 + 2 + len(m.Name())
	return guint32(m[off : off+4])
}
func (m Tcreate) Mode() uint8 {
	off := 11 + 2 + len(m.Name()) + 4
	return m[off]
}

// Extension returns the 9P2000.u extension field and true if the
// message was parsed under the 9P2000.u dialect.
func (m Tcreate) Extension() ([]byte, bool) {
	off := 11 + 2 + len(m.Name()) + 4 + 1
	if off >= len(m) {
		return nil, false
	}
	return msg(m).nthField(off, 0), true
}

func (m Tcreate) String() string {
	return fmt.Sprintf("Tcreate fid=%x name=%q perm=%o mode=%#o", m.Fid(), m.Name(), m.Perm(), m.Mode())
}

// Rcreate answers a Tcreate as if it were an Ropen of the new file.
type Rcreate msg

func (m Rcreate) Tag() uint16    { return msg(m).Tag() }
func (m Rcreate) Len() int64     { return msg(m).Len() }
func (m Rcreate) Qid() Qid       { return Qid(m[7 : 7+QidLen]) }
func (m Rcreate) IOunit() uint32 { return guint32(m[7+QidLen : 11+QidLen]) }
func (m Rcreate) String() string {
	return fmt.Sprintf("Rcreate qid=%v iounit=%d", m.Qid(), m.IOunit())
}

// Tread requests up to Count bytes from fid starting at Offset.
type Tread msg

func (m Tread) Tag() uint16    { return msg(m).Tag() }
func (m Tread) Len() int64     { return msg(m).Len() }
func (m Tread) Fid() uint32    { return guint32(m[7:11]) }
func (m Tread) Offset() uint64 { return guint64(m[11:19]) }
func (m Tread) Count() uint32  { return guint32(m[19:23]) }
func (m Tread) String() string {
	return fmt.Sprintf("Tread fid=%x offset=%d count=%d", m.Fid(), m.Offset(), m.Count())
}

// Rread carries the bytes read by a Tread. Its Data stream is exposed
// as an io.Reader so a large reply need not be buffered in full.
type Rread struct {
	io.Reader
	m msg
}

func (m Rread) Tag() uint16   { return m.m.Tag() }
func (m Rread) Len() int64    { return m.m.Len() }
func (m Rread) Count() uint32 { return guint32(m.m[7:11]) }
func (m Rread) String() string {
	return fmt.Sprintf("Rread count=%d", m.Count())
}

// Twrite carries Count bytes to be written to fid at Offset. Its Data
// stream is exposed as an io.Reader so a large request need not be
// buffered in full.
type Twrite struct {
	io.Reader
	m msg
}

func (m Twrite) Tag() uint16    { return m.m.Tag() }
func (m Twrite) Len() int64     { return m.m.Len() }
func (m Twrite) Fid() uint32    { return guint32(m.m[7:11]) }
func (m Twrite) Offset() uint64 { return guint64(m.m[11:19]) }
func (m Twrite) Count() uint32  { return guint32(m.m[19:23]) }
func (m Twrite) String() string {
	return fmt.Sprintf("Twrite fid=%x offset=%d count=%d", m.Fid(), m.Offset(), m.Count())
}

// Rwrite reports how many bytes of a Twrite were committed.
type Rwrite msg

func (m Rwrite) Tag() uint16   { return msg(m).Tag() }
func (m Rwrite) Len() int64    { return msg(m).Len() }
func (m Rwrite) Count() uint32 { return guint32(m[7:11]) }
func (m Rwrite) String() string {
	return fmt.Sprintf("Rwrite count=%d", m.Count())
}

// Tclunk retires fid. Whatever operation was pending on it (including
// an open file descriptor) should be abandoned.
type Tclunk msg

func (m Tclunk) Tag() uint16    { return msg(m).Tag() }
func (m Tclunk) Len() int64     { return msg(m).Len() }
func (m Tclunk) Fid() uint32    { return guint32(m[7:11]) }
func (m Tclunk) String() string { return fmt.Sprintf("Tclunk fid=%x", m.Fid()) }

// Rclunk answers a Tclunk; fid may now be reused by the client.
type Rclunk msg

func (m Rclunk) Tag() uint16    { return msg(m).Tag() }
func (m Rclunk) Len() int64     { return msg(m).Len() }
func (m Rclunk) String() string { return "Rclunk" }

// Tremove clunks fid and additionally requests that the file it names
// be deleted, if permissions allow.
type Tremove msg

func (m Tremove) Tag() uint16    { return msg(m).Tag() }
func (m Tremove) Len() int64     { return msg(m).Len() }
func (m Tremove) Fid() uint32    { return guint32(m[7:11]) }
func (m Tremove) String() string { return fmt.Sprintf("Tremove fid=%x", m.Fid()) }

// Rremove answers a Tremove whose deletion succeeded; a failed
// deletion is reported via Rerror instead.
type Rremove msg

func (m Rremove) Tag() uint16    { return msg(m).Tag() }
func (m Rremove) Len() int64     { return msg(m).Len() }
func (m Rremove) String() string { return "Rremove" }

// Tstat requests the Stat record for fid.
type Tstat msg

func (m Tstat) Tag() uint16    { return msg(m).Tag() }
func (m Tstat) Len() int64     { return msg(m).Len() }
func (m Tstat) Fid() uint32    { return guint32(m[7:11]) }
func (m Tstat) String() string { return fmt.Sprintf("Tstat fid=%x", m.Fid()) }

// Rstat answers a Tstat with the file's Stat record, doubly enveloped
// per stat(5): a 2-byte length prefixed onto the encoded record.
type Rstat msg

func (m Rstat) Tag() uint16    { return msg(m).Tag() }
func (m Rstat) Len() int64     { return msg(m).Len() }
func (m Rstat) Stat() []byte   { return msg(m).nthField(7, 0) }
func (m Rstat) String() string { return "Rstat " + fmt.Sprintf("%x", m.Stat()) }

// Twstat requests that fid's metadata be updated per the enclosed
// Stat, which may set any field to its sentinel "don't touch" value.
type Twstat msg

func (m Twstat) Tag() uint16    { return msg(m).Tag() }
func (m Twstat) Len() int64     { return msg(m).Len() }
func (m Twstat) Fid() uint32    { return guint32(m[7:11]) }
func (m Twstat) Stat() []byte   { return msg(m).nthField(11, 0) }
func (m Twstat) String() string { return fmt.Sprintf("Twstat fid=%x", m.Fid()) }

// Rwstat answers a successful Twstat.
type Rwstat msg

func (m Rwstat) Tag() uint16    { return msg(m).Tag() }
func (m Rwstat) Len() int64     { return msg(m).Len() }
func (m Rwstat) String() string { return "Rwstat" }

// BadMessage represents a message that failed validation. Its Tag, if
// recoverable, lets the caller still answer with an Rerror; Err
// explains what was wrong.
type BadMessage struct {
	Err error
	tag uint16
	n   int64
}

func (m BadMessage) Tag() uint16    { return m.tag }
func (m BadMessage) Len() int64     { return m.n - 4 }
func (m BadMessage) String() string { return fmt.Sprintf("bad message: %v", m.Err) }
