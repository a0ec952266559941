package proto

import (
	"encoding/binary"
	"fmt"
)

// Message type codes, as laid out in the size[4] type[1] tag[2] header
// shared by every 9P message.
const (
	msgTversion uint8 = 100 + iota
	msgRversion
	msgTauth
	msgRauth
	msgTattach
	msgRattach
	_ // Terror is illegal to send
	msgRerror
	msgTflush
	msgRflush
	msgTwalk
	msgRwalk
	msgTopen
	msgRopen
	msgTcreate
	msgRcreate
	msgTread
	msgRread
	msgTwrite
	msgRwrite
	msgTclunk
	msgRclunk
	msgTremove
	msgRremove
	msgTstat
	msgRstat
	msgTwstat
	msgRwstat
)

// NoTag is the distinguished tag value used on a Tversion/Rversion
// exchange, which precedes tag negotiation.
const NoTag uint16 = 0xFFFF

// NoFid is the distinguished fid value meaning "no authentication
// file", used in Tattach when a client declines to authenticate.
const NoFid uint32 = 0xFFFFFFFF

// Shorthand for reading/writing little-endian integers.
var (
	guint16 = binary.LittleEndian.Uint16
	guint32 = binary.LittleEndian.Uint32
	guint64 = binary.LittleEndian.Uint64
)

// msg is the common byte-level view shared by every message type:
// size[4] type[1] tag[2] body...
type msg []byte

func (m msg) Type() uint8  { return m[4] }
func (m msg) Tag() uint16  { return guint16(m[5:7]) }
func (m msg) Body() []byte { return m[7:] }

// Len returns the number of bytes in the message, not counting size[4]
// itself -- i.e. type[1] tag[2] body. The wire value of size[4] is
// self-inclusive (it counts its own four bytes), so Len subtracts them
// back out; minSizeLUT and every concrete type's Len() are expressed
// in this same not-counting-size[4] convention.
func (m msg) Len() int64 { return int64(guint32(m[:4])) - 4 }

// nthField returns the nth variable-length (2-byte-prefixed) field
// starting at offset. Calling nthField on an unverified message can
// panic; every concrete parse function validates field boundaries
// before constructing the typed message that exposes this accessor.
func (m msg) nthField(offset, n int) []byte {
	field, _ := m.nthFieldAt(offset, n)
	return field
}

// nthFieldAt is like nthField but also returns the offset in m
// immediately following the field, so callers can tell whether any
// trailing bytes -- such as a 9P2000.u extension -- follow it.
func (m msg) nthFieldAt(offset, n int) (field []byte, next int) {
	size := int(guint16(m[offset : offset+2]))
	for i := 0; i < n; i++ {
		offset += size + 2
		size = int(guint16(m[offset : offset+2]))
	}
	return m[offset+2 : offset+2+size], offset + 2 + size
}

// A Msg is any parsed 9P message, T- or R-.
type Msg interface {
	// Tag is the transaction identifier chosen by the client. No two
	// pending T-messages on a connection may share a tag; every
	// R-message carries the tag of the request it answers.
	Tag() uint16

	// Len returns the length of the message in bytes, not counting
	// the 4-byte size field itself.
	Len() int64
}

func typeName(t uint8) string {
	switch t {
	case msgTversion:
		return "Tversion"
	case msgRversion:
		return "Rversion"
	case msgTauth:
		return "Tauth"
	case msgRauth:
		return "Rauth"
	case msgTattach:
		return "Tattach"
	case msgRattach:
		return "Rattach"
	case msgRerror:
		return "Rerror"
	case msgTflush:
		return "Tflush"
	case msgRflush:
		return "Rflush"
	case msgTwalk:
		return "Twalk"
	case msgRwalk:
		return "Rwalk"
	case msgTopen:
		return "Topen"
	case msgRopen:
		return "Ropen"
	case msgTcreate:
		return "Tcreate"
	case msgRcreate:
		return "Rcreate"
	case msgTread:
		return "Tread"
	case msgRread:
		return "Rread"
	case msgTwrite:
		return "Twrite"
	case msgRwrite:
		return "Rwrite"
	case msgTclunk:
		return "Tclunk"
	case msgRclunk:
		return "Rclunk"
	case msgTremove:
		return "Tremove"
	case msgRremove:
		return "Rremove"
	case msgTstat:
		return "Tstat"
	case msgRstat:
		return "Rstat"
	case msgTwstat:
		return "Twstat"
	case msgRwstat:
		return "Rwstat"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}
