package ninep

import (
	"context"

	"github.com/hpdsys/ninep/proto"
)

// FileInfo is the dialect-neutral description of a file that a
// Backend hands back from Stat, and that the connection encodes as
// either a plain proto.Stat or, on a 9P2000.u connection, a
// proto.StatU. The Nuid/Ngid/Nmuid/Extension fields are only ever
// placed on the wire for a 9P2000.u peer; a Backend that does not
// track numeric ownership can leave them zero.
type FileInfo struct {
	Qid             proto.Qid
	Mode            uint32
	Atime, Mtime    uint32
	Length          uint64
	Name            string
	Uid, Gid, Muid  string
	Extension       string
	Nuid, Ngid, Nmuid uint32
}

func (fi FileInfo) stat() proto.Stat {
	return proto.NewStat(fi.Qid, fi.Mode, fi.Atime, fi.Mtime, fi.Length, fi.Name, fi.Uid, fi.Gid, fi.Muid)
}

func (fi FileInfo) statU() proto.StatU {
	return proto.NewStatU(fi.Qid, fi.Mode, fi.Atime, fi.Mtime, fi.Length, fi.Name, fi.Uid, fi.Gid, fi.Muid,
		fi.Extension, fi.Nuid, fi.Ngid, fi.Nmuid)
}

// AuthRequest carries the arguments of a Tauth.
type AuthRequest struct {
	Afid   uint32
	Uname  string
	Aname  string
	Nuname uint32 // 9P2000.u only; zero if the peer is plain 9P2000
}

// AttachRequest carries the arguments of a Tattach.
type AttachRequest struct {
	Fid, Afid uint32
	Uname     string
	Aname     string
	Nuname    uint32
}

// WalkRequest carries the arguments of a Twalk.
type WalkRequest struct {
	Fid, Newfid uint32
	Names       []string
}

// OpenRequest carries the arguments of a Topen.
type OpenRequest struct {
	Fid  uint32
	Mode uint8
}

// CreateRequest carries the arguments of a Tcreate.
type CreateRequest struct {
	Fid       uint32
	Name      string
	Perm      uint32
	Mode      uint8
	Extension string // 9P2000.u only
}

// ReadRequest carries the arguments of a Tread.
type ReadRequest struct {
	Fid    uint32
	Offset uint64
	Count  uint32
}

// WriteRequest carries the arguments of a Twrite. Data is a copy of
// the request's payload, read in full before the Backend is called.
type WriteRequest struct {
	Fid    uint32
	Offset uint64
	Data   []byte
}

// Backend supplies the filesystem semantics behind a connection: one
// method per T-message type, except Tversion (handled via Version,
// since it also governs dialect selection) and Tflush (handled
// entirely by the connection, via the in-flight request table).
//
// Every method receives a context.Context that is cancelled if the
// client flushes the corresponding tag; a Backend that performs a
// long-running or blocking operation should select on ctx.Done() so
// Tflush can return promptly.
type Backend interface {
	// Version is consulted once per Tversion whose version string is
	// compatible with one of the configured dialects (otherwise the
	// reply is "unknown" without asking). It receives the
	// client's requested version string and returns the version the
	// server will actually speak; the connection then maps that
	// string back to a Dialect. Returning a plain "9P2000" in
	// response to a "9P2000.u" request is how a Backend declines
	// the extension.
	Version(ctx context.Context, clientVersion string) (serverVersion string)

	Auth(ctx context.Context, r AuthRequest) (proto.Qid, error)
	Attach(ctx context.Context, r AttachRequest) (proto.Qid, error)
	Walk(ctx context.Context, r WalkRequest) ([]proto.Qid, error)
	Open(ctx context.Context, r OpenRequest) (qid proto.Qid, iounit uint32, err error)
	Create(ctx context.Context, r CreateRequest) (qid proto.Qid, iounit uint32, err error)
	Read(ctx context.Context, r ReadRequest) ([]byte, error)
	Write(ctx context.Context, r WriteRequest) (count uint32, err error)
	Clunk(ctx context.Context, fid uint32) error
	Remove(ctx context.Context, fid uint32) error
	Stat(ctx context.Context, fid uint32) (FileInfo, error)
	Wstat(ctx context.Context, fid uint32, want FileInfo) error
}
