package proto

import "fmt"

// A ProtoError describes a malformed message encountered while
// framing or parsing the wire stream. A framing error (a size field
// below the minimum, or above the Decoder's MaxSize) is returned by
// Decoder.Err and ends the stream, since the next message boundary is
// no longer known. An error found inside a correctly framed message is
// carried by a BadMessage instead; the stream stays in sync, and the
// caller may answer it with an Rerror on the message's tag.
type ProtoError string

func (p ProtoError) Error() string { return string(p) }

var (
	errContainsSlash  = ProtoError("slash in path element")
	errInvalidMsgType = ProtoError("invalid message type")
	errInvalidQidType = ProtoError("invalid type field in qid")
	errInvalidUTF8    = ProtoError("string is not valid utf8")
	errLongAname      = ProtoError("aname field too long")
	errLongError      = ProtoError("error message too long")
	errLongExtension  = ProtoError("extension field too long")
	errLongFilename   = ProtoError("file name too long")
	errLongLength     = ProtoError("stat length field exceeds maximum")
	errLongStat       = ProtoError("stat structure too long")
	errLongString     = ProtoError("string exceeds 65535 bytes")
	errLongUsername   = ProtoError("uid, gid or muid name too long")
	errLongVersion    = ProtoError("protocol version string too long")
	errMaxOffset      = ProtoError("maximum offset exceeded")
	errMaxWElem       = ProtoError("maximum walk elements exceeded")
	errOverSize       = ProtoError("field size exceeds message size")
	errShortStat      = ProtoError("stat structure too short")
	errTooBig         = ProtoError("message exceeds maximum size for its type")
	errTooSmall       = ProtoError("message smaller than minimum size for its type")
	errUnderSize      = ProtoError("unclaimed bytes left at end of field")
	errZeroLen        = ProtoError("zero-length message")

	// ErrMaxSize is returned when a message exceeds the msize
	// negotiated during the Tversion/Rversion exchange.
	ErrMaxSize = ProtoError("message exceeds negotiated msize")
)

// ModeConflict is returned by MergeStat when the
// incoming stat tries to change the file-type bits of mode -- the
// upper byte that mirrors a Qid's type. 9P forbids changing a file's
// type via Twstat; that change must go through Tcreate/Tremove.
type ModeConflict struct {
	Have, Want uint32
}

func (m ModeConflict) Error() string {
	return fmt.Sprintf("wstat: cannot change file type via mode (have %#o, want %#o)", m.Have, m.Want)
}
