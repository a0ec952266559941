package proto

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/hpdsys/ninep/internal/util"
)

var (
	buint16 = binary.LittleEndian.PutUint16
	buint32 = binary.LittleEndian.PutUint32
	buint64 = binary.LittleEndian.PutUint64
)

// puint8 appends v to dst and returns the extended slice. It is used
// when building a message in a caller-owned buffer (Qid, Stat), as
// opposed to streaming one out through an Encoder.
func puint8(dst []byte, v uint8) []byte { return append(dst, v) }

func puint16(dst []byte, v uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return append(dst, buf[:]...)
}

func puint32(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

func puint64(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

// pbyte appends a 2-byte length prefix and the bytes of p.
func pbyte(dst []byte, p []byte) []byte {
	if len(p) > math.MaxUint16 {
		panic(errLongString)
	}
	dst = puint16(dst, uint16(len(p)))
	return append(dst, p...)
}

// The Encoder writes directly to the wire instead of a caller-owned
// buffer, so its primitives write through an *util.ErrWriter: once one
// write fails, every subsequent write on the same ErrWriter becomes a
// no-op, so a Write* method on Encoder can fire off a whole message's
// worth of writes and check the error exactly once at the end.

func wuint8(w *util.ErrWriter, v uint8) { w.WriteByte(v) }

func wuint16(w *util.ErrWriter, v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	w.Write(buf[:])
}

func wuint32(w *util.ErrWriter, v ...uint32) {
	var buf [4]byte
	for _, vv := range v {
		binary.LittleEndian.PutUint32(buf[:], vv)
		w.Write(buf[:])
	}
}

func wuint64(w *util.ErrWriter, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	w.Write(buf[:])
}

func wbytes(w *util.ErrWriter, p []byte) {
	if len(p) > math.MaxUint16 {
		w.Err = errLongString
		return
	}
	wuint16(w, uint16(len(p)))
	w.Write(p)
}

func wstring(w *util.ErrWriter, s ...string) {
	for _, ss := range s {
		if len(ss) > math.MaxUint16 {
			w.Err = errLongString
			return
		}
		wuint16(w, uint16(len(ss)))
		io.WriteString(w, ss)
	}
}

func wqid(w *util.ErrWriter, qids ...Qid) {
	for _, q := range qids {
		w.Write(q[:QidLen])
	}
}

// wheader writes the common size[4] type[1] tag[2] prefix, followed by
// any fixed uint32 fields that come immediately after the tag for the
// calling message type.
func wheader(w *util.ErrWriter, size uint32, mtype uint8, tag uint16, extra ...uint32) {
	wuint32(w, size)
	wuint8(w, mtype)
	wuint16(w, tag)
	wuint32(w, extra...)
}
