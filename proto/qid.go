package proto

import (
	"fmt"
	"io"
)

// A Qid is the server's unique identifier for a file: two files on the
// same server are the same file if and only if their Qids are equal.
type Qid []byte

// NewQid encodes a Qid into buf, which must be at least QidLen bytes
// long, and returns the encoded Qid along with the unused remainder
// of buf.
func NewQid(buf []byte, qtype QidType, version uint32, path uint64) (Qid, []byte, error) {
	if len(buf) < QidLen {
		return nil, buf, io.ErrShortBuffer
	}
	b := buf[:0]
	b = puint8(b, uint8(qtype))
	b = puint32(b, version)
	b = puint64(b, path)
	return Qid(b), buf[len(b):], nil
}

// Type returns the type of the file (directory, symlink, etc).
func (q Qid) Type() QidType { return QidType(q[0]) }

// Version increments each time the file's contents are modified. A
// cache may use it to tell whether previously fetched data is stale.
func (q Qid) Version() uint32 { return guint32(q[1:5]) }

// Path uniquely identifies the file among every file ever served by
// this hierarchy, including ones since deleted.
func (q Qid) Path() uint64 { return guint64(q[5:13]) }

func (q Qid) String() string {
	return fmt.Sprintf("(%02x %d %x)", q.Type(), q.Version(), q.Path())
}

// QidType is a bitmask describing the type of a file. It occupies the
// same bit positions as the high byte of a Stat's mode field.
type QidType uint8

const (
	QTDIR     QidType = 0x80 // directory
	QTAPPEND  QidType = 0x40 // append-only
	QTEXCL    QidType = 0x20 // exclusive-use
	QTMOUNT   QidType = 0x10 // mounted channel
	QTAUTH    QidType = 0x08 // authentication file
	QTTMP     QidType = 0x04 // not backed up
	QTSYMLINK QidType = 0x02 // symbolic link (9P2000.u)
	QTLINK    QidType = 0x01 // hard link (9P2000.u)
	QTFILE    QidType = 0x00 // plain file
)

func validQidType(t uint8) bool {
	// every bit in t must be one of the named QT bits above
	const known = uint8(QTDIR | QTAPPEND | QTEXCL | QTMOUNT | QTAUTH | QTTMP | QTSYMLINK | QTLINK)
	return t&^known == 0
}
