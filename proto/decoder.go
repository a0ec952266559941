package proto

import (
	"bufio"
	"errors"
	"io"
	"io/ioutil"
)

var errFillOverflow = errors.New("proto: cannot grow buffer past maxInt")

// NewDecoder returns a Decoder with a buffer of DefaultBufSize bytes.
func NewDecoder(r io.Reader) *Decoder {
	return NewDecoderSize(r, DefaultBufSize)
}

// NewDecoderSize returns a Decoder whose internal buffer is at least
// MinBufSize bytes. A bigger buffer lets one Next surface more
// messages from an already-multiplexed connection without additional
// reads, at the cost of memory per idle connection.
func NewDecoderSize(r io.Reader, bufsize int) *Decoder {
	if bufsize < MinBufSize {
		bufsize = MinBufSize
	}
	return &Decoder{br: bufio.NewReaderSize(r, bufsize), MaxSize: -1}
}

// A Decoder reads a stream of 9P messages out of an io.Reader. It is a
// sliding window over a bufio.Reader: dot selects the bytes of the
// message currently being validated, mark commits dot as consumed once
// a message parses successfully. This lets a Twrite/Rread whose data
// portion does not fit in the buffer be hands off as an io.Reader
// directly over the connection, instead of being buffered whole.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	// MaxSize is the largest message Next will accept before
	// returning ErrMaxSize. A value < 0 means no limit, the state
	// before Tversion has negotiated msize.
	MaxSize int64

	// Unix selects 9P2000.u field layouts for dialect-sensitive
	// message types. It is set once, after Tversion negotiation.
	Unix bool

	br         *bufio.Reader
	start, pos int
	msg        Msg
	err        error
}

// Reset discards any buffered state and begins reading from r.
func (d *Decoder) Reset(r io.Reader) {
	d.MaxSize = -1
	d.Unix = false
	if r == nil {
		d.br.Reset(new(zeroReader))
	} else {
		d.br.Reset(r)
	}
	d.start, d.pos = 0, 0
	d.msg = nil
	d.err = nil
}

type zeroReader struct{}

func (zeroReader) Read([]byte) (int, error) { return 0, io.EOF }

// Err returns the first non-EOF error encountered while reading or
// parsing. A malformed message is not an error here -- it surfaces as
// a BadMessage value from Msg -- only a problem with the underlying
// io.Reader, a size field below the 7-byte minimum, or a message
// exceeding MaxSize, is.
func (d *Decoder) Err() error {
	if d.err == io.EOF {
		return nil
	}
	return d.err
}

// Msg returns the message fetched by the most recent call to Next. It
// is valid only until the next call to Next.
func (d *Decoder) Msg() Msg { return d.msg }

// Next advances the Decoder to the next message in the stream,
// discarding any unread bytes of a Twrite/Rread body left over from
// the previous message. It returns false on error or EOF; the error,
// if any, is available from Err.
func (d *Decoder) Next() bool {
	if d.msg != nil {
		if r, ok := d.msg.(io.Reader); ok {
			_, d.err = io.Copy(ioutil.Discard, r)
		}
		d.msg = nil
	}
	if d.err != nil {
		return false
	}
	d.start, d.pos = 0, 0
	d.msg, d.err = d.fetch()
	return d.msg != nil
}

func (d *Decoder) dot() []byte {
	buf, err := d.br.Peek(d.pos)
	if err != nil {
		panic(err) // pos <= Buffered(), so this can't fail
	}
	return buf[d.start:]
}

func (d *Decoder) buflen() int { return d.br.Buffered() - d.pos }

func (d *Decoder) advance(n int) {
	if d.buflen() < n {
		panic("proto: Decoder advance out of bounds")
	}
	d.pos += n
}

// mark consumes dot from the underlying reader, so the next read
// starts right after it. Slices already taken from dot stay valid
// until the reader's buffer is next refilled.
func (d *Decoder) mark() {
	d.br.Discard(d.pos)
	d.start, d.pos = 0, 0
}

// growdot extends dot to be n bytes long, performing I/O as needed.
func (d *Decoder) growdot(n int) ([]byte, error) {
	want := n - (d.pos - d.start)
	if want > 0 {
		if err := d.fill(want); err != nil {
			return nil, err
		}
		d.advance(want)
	}
	return d.dot(), nil
}

func (d *Decoder) fill(n int) error {
	if maxInt-n < d.pos {
		return errFillOverflow
	}
	_, err := d.br.Peek(d.pos + n)
	return err
}

const maxInt = int(^uint(0) >> 1)

// fetch reads and validates exactly one message, possibly issuing a
// BadMessage in place of a malformed one rather than returning an
// error -- framing errors (a header too corrupt to find the next
// message boundary) are the only thing that propagates as an error.
//
// dot always starts at the message's size[4] field; size[4] is
// self-inclusive, so its wire value is already the full message
// length -- size field, type, tag and body together.
func (d *Decoder) fetch() (Msg, error) {
	head, err := d.growdot(minMsgSize)
	if err != nil {
		return nil, err
	}
	fieldSize := int64(guint32(head[:4]))
	mtype := head[4]
	tag := guint16(head[5:7])
	full := fieldSize

	if full < minMsgSize {
		return nil, errZeroLen
	}
	if d.MaxSize >= 0 && full > d.MaxSize {
		return nil, ErrMaxSize
	}
	if !validMsgType(mtype) {
		return d.discardBad(full, tag, errInvalidMsgType)
	}

	// Twrite/Rread carry up to 4GB of opaque data; rather than buffer
	// the whole message, hand the remaining, unread data portion to
	// the caller as an io.Reader once the fixed-shape prefix has been
	// validated, provided it does not already fit comfortably in the
	// buffer.
	if (mtype == msgTwrite || mtype == msgRread) && full > int64(d.br.Size()) {
		prefixLen := 23 // size[4] type[1] tag[2] fid[4] offset[8] count[4]
		if mtype == msgRread {
			prefixLen = 11 // size[4] type[1] tag[2] count[4]
		}
		prefix, err := d.growdot(prefixLen)
		if err != nil {
			return nil, err
		}
		var count int64
		if mtype == msgTwrite {
			count = int64(guint32(prefix[19:23]))
		} else {
			count = int64(guint32(prefix[7:11]))
		}
		if full != int64(prefixLen)+count {
			return d.discardBad(full, tag, errOverSize)
		}
		d.mark()
		var m Msg
		if mtype == msgTwrite {
			m = Twrite{Reader: io.LimitReader(d.br, count), m: msg(prefix)}
		} else {
			m = Rread{Reader: io.LimitReader(d.br, count), m: msg(prefix)}
		}
		return m, nil
	}

	if full > int64(d.br.Size()) {
		return d.discardBad(full, tag, errTooBig)
	}

	body, err := d.growdot(int(full))
	if err != nil {
		return nil, err
	}
	if err := verifySize(msg(body)); err != nil {
		return d.discardBad(full, tag, err)
	}
	m, err := parseLUT[mtype](msg(body), d.br, d.Unix)
	if err != nil {
		return d.discardBad(full, tag, err)
	}
	d.mark()
	return m, nil
}

// discardBad consumes n bytes -- the framed message's full length --
// so the stream stays in sync, and returns a BadMessage carrying err.
func (d *Decoder) discardBad(n int64, tag uint16, err error) (Msg, error) {
	if _, ferr := d.growdot(int(n)); ferr != nil {
		return nil, ferr
	}
	d.mark()
	return BadMessage{Err: err, tag: tag, n: n}, nil
}
