package proto

import "fmt"

// Stat describes a single directory entry, as carried in Rstat,
// Twstat, and the directory-listing bytes returned by a Tread on a
// directory. It does not include the 2-byte outer envelope that
// precedes a Stat inside an Rstat/Twstat message body -- that envelope
// belongs to the message codec, not the record itself.
type Stat []byte

func (s Stat) Size() uint16   { return guint16(s[0:2]) }
func (s Stat) Type() uint16   { return guint16(s[2:4]) }
func (s Stat) Dev() uint32    { return guint32(s[4:8]) }
func (s Stat) Qid() Qid       { return Qid(s[8 : 8+QidLen]) }
func (s Stat) Mode() uint32   { return guint32(s[21:25]) }
func (s Stat) Atime() uint32  { return guint32(s[25:29]) }
func (s Stat) Mtime() uint32  { return guint32(s[29:33]) }
func (s Stat) Length() uint64 { return guint64(s[33:41]) }
func (s Stat) Name() []byte   { return msg(s).nthField(41, 0) }
func (s Stat) Uid() []byte    { return msg(s).nthField(41, 1) }
func (s Stat) Gid() []byte    { return msg(s).nthField(41, 2) }
func (s Stat) Muid() []byte   { return msg(s).nthField(41, 3) }

func (s Stat) String() string {
	return fmt.Sprintf("qid=%v mode=%o atime=%d mtime=%d length=%d name=%q uid=%q gid=%q muid=%q",
		s.Qid(), s.Mode(), s.Atime(), s.Mtime(), s.Length(), s.Name(), s.Uid(), s.Gid(), s.Muid())
}

// StatU is the 9P2000.u extension of Stat: the same fixed prefix and
// four strings, followed by an extension string (symlink target, or
// "b maj,min" for a device file) and three numeric uid/gid/muid that
// let a client skip name resolution entirely.
type StatU []byte

func (s StatU) Size() uint16   { return guint16(s[0:2]) }
func (s StatU) Type() uint16   { return guint16(s[2:4]) }
func (s StatU) Dev() uint32    { return guint32(s[4:8]) }
func (s StatU) Qid() Qid       { return Qid(s[8 : 8+QidLen]) }
func (s StatU) Mode() uint32   { return guint32(s[21:25]) }
func (s StatU) Atime() uint32  { return guint32(s[25:29]) }
func (s StatU) Mtime() uint32  { return guint32(s[29:33]) }
func (s StatU) Length() uint64 { return guint64(s[33:41]) }
func (s StatU) Name() []byte   { return msg(s).nthField(41, 0) }
func (s StatU) Uid() []byte    { return msg(s).nthField(41, 1) }
func (s StatU) Gid() []byte    { return msg(s).nthField(41, 2) }
func (s StatU) Muid() []byte   { return msg(s).nthField(41, 3) }
func (s StatU) Extension() []byte { return msg(s).nthField(41, 4) }

func (s StatU) nOffset() int {
	_, next := msg(s).nthFieldAt(41, 4)
	return next
}
func (s StatU) NUid() uint32  { off := s.nOffset(); return guint32(s[off : off+4]) }
func (s StatU) NGid() uint32  { off := s.nOffset() + 4; return guint32(s[off : off+4]) }
func (s StatU) NMuid() uint32 { off := s.nOffset() + 8; return guint32(s[off : off+4]) }

func (s StatU) String() string {
	return fmt.Sprintf("qid=%v mode=%o atime=%d mtime=%d length=%d name=%q uid=%q gid=%q muid=%q ext=%q",
		s.Qid(), s.Mode(), s.Atime(), s.Mtime(), s.Length(), s.Name(), s.Uid(), s.Gid(), s.Muid(), s.Extension())
}

// NewStat encodes a plain 9P2000 Stat record.
func NewStat(qid Qid, mode uint32, atime, mtime uint32, length uint64, name, uid, gid, muid string) Stat {
	buf := make([]byte, 0, minStatLen+len(name)+len(uid)+len(gid)+len(muid))
	buf = puint16(buf, 0) // size, patched below
	buf = puint16(buf, 0) // type
	buf = puint32(buf, 0) // dev
	buf = append(buf, qid[:QidLen]...)
	buf = puint32(buf, mode)
	buf = puint32(buf, atime)
	buf = puint32(buf, mtime)
	buf = puint64(buf, length)
	buf = pbyte(buf, []byte(name))
	buf = pbyte(buf, []byte(uid))
	buf = pbyte(buf, []byte(gid))
	buf = pbyte(buf, []byte(muid))
	buint16(buf[0:2], uint16(len(buf)-2))
	return Stat(buf)
}

// NewStatU encodes a 9P2000.u StatU record.
func NewStatU(qid Qid, mode uint32, atime, mtime uint32, length uint64, name, uid, gid, muid, extension string, nUid, nGid, nMuid uint32) StatU {
	buf := make([]byte, 0, minStatULen+len(name)+len(uid)+len(gid)+len(muid)+len(extension))
	buf = puint16(buf, 0)
	buf = puint16(buf, 0)
	buf = puint32(buf, 0)
	buf = append(buf, qid[:QidLen]...)
	buf = puint32(buf, mode)
	buf = puint32(buf, atime)
	buf = puint32(buf, mtime)
	buf = puint64(buf, length)
	buf = pbyte(buf, []byte(name))
	buf = pbyte(buf, []byte(uid))
	buf = pbyte(buf, []byte(gid))
	buf = pbyte(buf, []byte(muid))
	buf = pbyte(buf, []byte(extension))
	buf = puint32(buf, nUid)
	buf = puint32(buf, nGid)
	buf = puint32(buf, nMuid)
	buint16(buf[0:2], uint16(len(buf)-2))
	return StatU(buf)
}

// sentinel "don't touch" values for Twstat, per stat(5): an all-ones
// field of its width, or an empty string, means "leave this field
// unchanged".
const (
	DontTouchU16  = ^uint16(0)
	DontTouchU32  = ^uint32(0)
	DontTouchU64  = ^uint64(0)
)

// fileTypeMask isolates the high byte of mode, which mirrors a Qid's
// type and therefore cannot be changed by Twstat -- doing so would
// change what kind of file this is without going through
// Tcreate/Tremove. This resolves the ambiguity in the original
// implementation's mode mask (which used 0o7777000, the setuid/setgid/
// sticky bits instead of the type byte) in favor of the type byte,
// matching how Qid.Type is derived from mode elsewhere in this
// protocol.
const fileTypeMask = 0xFF000000

// MergeStat returns a copy of have with every non-sentinel field of
// want applied on top. A want whose mode disagrees with have's file
// type bits is rejected with ModeConflict; all other sentinel checks
// are per field and never fail.
func MergeStat(have, want Stat) (Stat, error) {
	out := append(Stat(nil), have...)
	if want.Type() != DontTouchU16 {
		buint16(out[2:4], want.Type())
	}
	if want.Dev() != DontTouchU32 {
		buint32(out[4:8], want.Dev())
	}
	if want.Mode() != DontTouchU32 {
		if have.Mode()&fileTypeMask != want.Mode()&fileTypeMask {
			return nil, ModeConflict{Have: have.Mode(), Want: want.Mode()}
		}
		buint32(out[21:25], want.Mode())
	}
	if want.Atime() != DontTouchU32 {
		buint32(out[25:29], want.Atime())
	}
	if want.Mtime() != DontTouchU32 {
		buint32(out[29:33], want.Mtime())
	}
	if want.Length() != DontTouchU64 {
		buint64(out[33:41], want.Length())
	}
	if name := want.Name(); len(name) > 0 {
		out = replaceStatField(out, 41, 0, name)
	}
	if uid := want.Uid(); len(uid) > 0 {
		out = replaceStatField(out, 41, 1, uid)
	}
	if gid := want.Gid(); len(gid) > 0 {
		out = replaceStatField(out, 41, 2, gid)
	}
	if muid := want.Muid(); len(muid) > 0 {
		out = replaceStatField(out, 41, 3, muid)
	}
	buint16(out[0:2], uint16(len(out)-2))
	return out, nil
}

// replaceStatField rebuilds buf with its nth variable field (counting
// from offset) replaced by field, shifting all later bytes.
func replaceStatField(buf []byte, offset, n int, field []byte) []byte {
	old, next := msg(buf).nthFieldAt(offset, n)
	start := next - len(old) - 2
	head := append([]byte(nil), buf[:start]...)
	head = pbyte(head, field)
	return append(head, buf[next:]...)
}
