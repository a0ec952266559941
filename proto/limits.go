package proto

// Field-length limits. 9P does not bound the variable-length fields in
// a message other than by the negotiated msize; a server that trusts
// msize alone is trivially made to allocate gigabytes for a single
// file name. These limits are enforced independently of msize.

// MaxVersionLen is the maximum length of the protocol version string, in bytes.
const MaxVersionLen = 20

// MaxOffset is the maximum value of the offset field in Tread and Twrite.
const MaxOffset = 1<<63 - 1

// MaxFilenameLen is the maximum length of a path element, in bytes.
const MaxFilenameLen = 512

// MaxWElem is the maximum number of path elements in a Twalk request.
const MaxWElem = 16

// MaxUidLen is the maximum length, in bytes, of a uid/gid/muid string.
const MaxUidLen = 45

// MaxErrorLen is the maximum length, in bytes, of the ename field of Rerror.
const MaxErrorLen = 512

// MaxAttachLen is the maximum length, in bytes, of the aname field.
const MaxAttachLen = 255

// MaxExtensionLen is the maximum length, in bytes, of the 9P2000.u
// extension field carried by Tcreate and Stat.u.
const MaxExtensionLen = 255

// MaxFileLen is the largest value a stat's length field may carry.
const MaxFileLen = 1<<63 - 1

// MinBufSize is the minimum size, in bytes, of a Decoder's internal buffer.
// It must be large enough to hold the largest fixed-shape message, a
// maximal Twalk request.
const MinBufSize = MaxWElem*(MaxFilenameLen+2) + 32

// DefaultBufSize is the default size of a Decoder's internal buffer.
const DefaultBufSize = 1 << 20

// DefaultMsize is the msize a Server proposes when its Config does not
// specify one.
const DefaultMsize = 1 << 20

// a plain stat(5) record, size[2] included, is at least 49 bytes: 41
// fixed bytes plus the 2-byte length prefixes of its four strings;
// 9P2000.u appends extension[s] n_uid[4] n_gid[4] n_muid[4] -- 14
// more bytes when the extension is empty.
const minStatLen = 49
const minStatULen = minStatLen + 14
const maxStatLen = minStatULen + MaxFilenameLen + MaxExtensionLen + (MaxUidLen * 3)

const maxWalkLen = MaxWElem * MaxFilenameLen

// largest 9P message theoretically allowed by the size[4] header
const maxMsgSize = 1<<32 - 1

// smallest possible message: size[4] type[1] tag[2]
const minMsgSize = 4 + 1 + 2

// QidLen is the encoded length of a Qid.
const QidLen = 13

// minSizeLUT gives the minimum length of a message (everything after
// size[4] -- i.e. type[1] tag[2] body), keyed by message type, for the
// plain 9P2000 dialect. 9P2000.u variants of Tauth, Tattach, Tcreate
// and Rerror are always longer than their plain counterparts, so this
// table remains a correct lower bound for both dialects. This is the
// same convention msg.Len() reports in, so verifySize can compare the
// two directly.
//
// msgTwstat diverges from the corpus's own table by minStatLen: a flat
// constant there admits a Twstat whose embedded stat blob is far
// smaller than any valid stat record, which fixedSize (below) would
// then let slide as just another variable-length message.
var minSizeLUT = [256]int32{
	msgTversion: 9,              // type[1] tag[2] msize[4] version[s]
	msgRversion: 9,              // type[1] tag[2] msize[4] version[s]
	msgTauth:    11,             // type[1] tag[2] afid[4] uname[s] aname[s]
	msgRauth:    16,             // type[1] tag[2] aqid[13]
	msgTattach:  15,             // type[1] tag[2] fid[4] afid[4] uname[s] aname[s]
	msgRattach:  16,             // type[1] tag[2] qid[13]
	msgRerror:   5,              // type[1] tag[2] ename[s]
	msgTflush:   5,              // type[1] tag[2] oldtag[2]
	msgRflush:   3,              // type[1] tag[2]
	msgTwalk:    13,             // type[1] tag[2] fid[4] newfid[4] nwname[2]
	msgRwalk:    5,              // type[1] tag[2] nwqid[2]
	msgTopen:    8,              // type[1] tag[2] fid[4] mode[1]
	msgRopen:    20,             // type[1] tag[2] qid[13] iounit[4]
	msgTcreate:  14,             // type[1] tag[2] fid[4] name[s] perm[4] mode[1]
	msgRcreate:  20,             // type[1] tag[2] qid[13] iounit[4]
	msgTread:    19,             // type[1] tag[2] fid[4] offset[8] count[4]
	msgRread:    7,              // type[1] tag[2] count[4]
	msgTwrite:   19,             // type[1] tag[2] fid[4] offset[8] count[4]
	msgRwrite:   7,              // type[1] tag[2] count[4]
	msgTclunk:   7,              // type[1] tag[2] fid[4]
	msgRclunk:   3,              // type[1] tag[2]
	msgTremove:  7,              // type[1] tag[2] fid[4]
	msgRremove:  3,              // type[1] tag[2]
	msgTstat:    7,              // type[1] tag[2] fid[4]
	msgRstat:    5 + minStatLen, // type[1] tag[2] statlen[2] stat
	msgTwstat:   9 + minStatLen, // type[1] tag[2] fid[4] statlen[2] stat
	msgRwstat:   3,              // type[1] tag[2]
}

// 9p2000.L constant table, carried over from the corpus's Plan 9 /
// 9P2000.L derived code for reference. This server does not implement
// the .L dialect's extra message types; nothing in this repository
// dispatches on these values. They are kept so a Backend written
// against a .L-aware client library can still interpret mode bits
// reported in a Stat.Mode, since .L reuses the same DM* bits.
const (
	DMDIR    = 0x80000000
	DMAPPEND = 0x40000000
	DMEXCL   = 0x20000000
	DMMOUNT  = 0x10000000
	DMAUTH   = 0x08000000
	DMTMP    = 0x04000000
	DMSYMLINK = 0x02000000
	DMDEVICE  = 0x00800000
	DMNAMEDPIPE = 0x00200000
	DMSOCKET    = 0x00100000
	DMSETUID    = 0x00080000
	DMSETGID    = 0x00040000
)
