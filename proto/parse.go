package proto

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

// parseFunc parses the body of a message whose header has already been
// validated by verifySize. unix selects 9P2000.u-specific field
// layouts for the handful of message types that differ between
// dialects; r is the buffered reader the message's bytes were read
// from, needed only by Rread/Twrite's large-body special case.
type parseFunc func(dot msg, r *bufio.Reader, unix bool) (Msg, error)

var parseLUT = [256]parseFunc{
	msgTversion: parseTversion,
	msgRversion: parseRversion,
	msgTauth:    parseTauth,
	msgRauth:    parseRauth,
	msgTattach:  parseTattach,
	msgRattach:  parseRattach,
	msgRerror:   parseRerror,
	msgTflush:   parseTflush,
	msgRflush:   parseRflush,
	msgTwalk:    parseTwalk,
	msgRwalk:    parseRwalk,
	msgTopen:    parseTopen,
	msgRopen:    parseRopen,
	msgTcreate:  parseTcreate,
	msgRcreate:  parseRcreate,
	msgTread:    parseTread,
	msgRread:    parseRread,
	msgTwrite:   parseTwrite,
	msgRwrite:   parseRwrite,
	msgTclunk:   parseTclunk,
	msgRclunk:   parseRclunk,
	msgTremove:  parseTremove,
	msgRremove:  parseRremove,
	msgTstat:    parseTstat,
	msgRstat:    parseRstat,
	msgTwstat:   parseTwstat,
	msgRwstat:   parseRwstat,
}

func validMsgType(t uint8) bool {
	return int(t) < len(parseLUT) && parseLUT[t] != nil
}

// fixedSize reports whether a message type's body has exactly the
// minimum size for its type -- false for anything carrying one or more
// variable-length fields (strings, qid lists, stat records, or raw
// data), which verifySize must not reject merely for being longer than
// the minimum.
func fixedSize(t uint8) bool {
	switch t {
	case msgTversion, msgRversion, msgTauth, msgTattach, msgRerror,
		msgTwalk, msgRwalk, msgTcreate, msgRread, msgTwrite,
		msgRstat, msgTwstat:
		return false
	}
	return true
}

func verifySize(m msg) error {
	t, n := m.Type(), m.Len()
	if !validMsgType(t) {
		return errInvalidMsgType
	}
	if min := int64(minSizeLUT[t]); n < min {
		return errTooSmall
	} else if fixedSize(t) && n > int64(minSizeLUT[t]) {
		return errTooBig
	}
	return nil
}

func verifyString(data []byte) error {
	if !utf8.Valid(data) {
		return errInvalidUTF8
	}
	return nil
}

func verifyPathElem(data []byte) error {
	for _, b := range data {
		if b == '/' {
			return errContainsSlash
		}
	}
	return verifyString(data)
}

func verifyQidBytes(q []byte) error {
	if !validQidType(q[0]) {
		return errInvalidQidType
	}
	return nil
}

// verifyField reads the first 2-byte-prefixed field in data. If fill
// is true, the field (plus its 2-byte prefix) must leave at least
// padding bytes of data after it -- used for the last field in a
// message, where 9P2000.u may append more fields after it and plain
// 9P2000 may not. Any further trailing bytes are returned in rest for
// the caller to check.
func verifyField(data []byte, fill bool, padding int) (field, rest []byte, err error) {
	if len(data) < 2 {
		return nil, nil, errOverSize
	}
	size := int(guint16(data[:2]))
	if size+2 > len(data) {
		return nil, nil, errOverSize
	}
	if fill && size+2 != len(data)-padding {
		// Be permissive about trailing slack left by some
		// implementations, except when the field would run past
		// the declared padding.
		if size+2 > len(data)-padding {
			return nil, nil, errOverSize
		}
	}
	field = data[2 : 2+size]
	rest = data[2+size:]
	return field, rest, nil
}

func parseTversion(dot msg, _ *bufio.Reader, _ bool) (Msg, error) {
	ver, _, err := verifyField(dot.Body()[4:], true, 0)
	if err != nil {
		return nil, err
	}
	if err := verifyString(ver); err != nil {
		return nil, err
	}
	if len(ver) > MaxVersionLen {
		return nil, errLongVersion
	}
	return Tversion(dot), nil
}

func parseRversion(dot msg, r *bufio.Reader, unix bool) (Msg, error) {
	if _, err := parseTversion(dot, r, unix); err != nil {
		return nil, err
	}
	return Rversion(dot), nil
}

// parseAuthBody validates the uname[s] aname[s] [n_uname[4]] shape
// shared by Tauth and (with a leading fid[4]) Tattach.
func parseAuthBody(body []byte, unix bool) error {
	uname, rest, err := verifyField(body, false, 0)
	if err != nil {
		return err
	}
	if err := verifyString(uname); err != nil {
		return err
	}
	if len(uname) > MaxUidLen {
		return errLongUsername
	}
	padding := 0
	if unix {
		padding = 4
	}
	aname, rest, err := verifyField(rest, true, padding)
	if err != nil {
		return err
	}
	if err := verifyString(aname); err != nil {
		return err
	}
	if len(aname) > MaxAttachLen {
		return errLongAname
	}
	if unix && len(rest) != 4 {
		return errOverSize
	}
	if !unix && len(rest) != 0 {
		return errOverSize
	}
	return nil
}

func parseTauth(dot msg, _ *bufio.Reader, unix bool) (Msg, error) {
	if err := parseAuthBody(dot.Body()[4:], unix); err != nil {
		return nil, err
	}
	return Tauth(dot), nil
}

func parseRauth(dot msg, _ *bufio.Reader, _ bool) (Msg, error) {
	if err := verifyQidBytes(dot.Body()); err != nil {
		return nil, err
	}
	return Rauth(dot), nil
}

func parseTattach(dot msg, _ *bufio.Reader, unix bool) (Msg, error) {
	if err := parseAuthBody(dot.Body()[8:], unix); err != nil {
		return nil, err
	}
	return Tattach(dot), nil
}

func parseRattach(dot msg, r *bufio.Reader, unix bool) (Msg, error) {
	if _, err := parseRauth(dot, r, unix); err != nil {
		return nil, err
	}
	return Rattach(dot), nil
}

func parseRerror(dot msg, _ *bufio.Reader, unix bool) (Msg, error) {
	padding := 0
	if unix {
		padding = 4
	}
	str, rest, err := verifyField(dot.Body(), true, padding)
	if err != nil {
		return nil, err
	}
	if err := verifyString(str); err != nil {
		return nil, err
	}
	if len(str) > MaxErrorLen {
		return nil, errLongError
	}
	if unix && len(rest) != 4 {
		return nil, errOverSize
	}
	if !unix && len(rest) != 0 {
		return nil, errOverSize
	}
	return Rerror(dot), nil
}

func parseTflush(dot msg, _ *bufio.Reader, _ bool) (Msg, error) { return Tflush(dot), nil }
func parseRflush(dot msg, _ *bufio.Reader, _ bool) (Msg, error) { return Rflush(dot), nil }

func parseTwalk(dot msg, _ *bufio.Reader, _ bool) (Msg, error) {
	nwelem := guint16(dot.Body()[8:10])
	if nwelem > MaxWElem {
		return nil, errMaxWElem
	}
	elems := dot.Body()[10:]
	for i := uint16(0); i < nwelem; i++ {
		last := i == nwelem-1
		var el []byte
		var err error
		el, elems, err = verifyField(elems, last, 0)
		if err != nil {
			return nil, err
		}
		if err := verifyPathElem(el); err != nil {
			return nil, err
		}
		if len(el) > MaxFilenameLen {
			return nil, errLongFilename
		}
	}
	if len(elems) != 0 {
		return nil, errOverSize
	}
	return Twalk(dot), nil
}

func parseRwalk(dot msg, _ *bufio.Reader, _ bool) (Msg, error) {
	nwqid := guint16(dot.Body()[:2])
	if nwqid > MaxWElem {
		return nil, errMaxWElem
	}
	want := int64(nwqid)*QidLen + 5 // type[1] tag[2] nwqid[2]
	if dot.Len() != want {
		if dot.Len() < want {
			return nil, errUnderSize
		}
		return nil, errOverSize
	}
	for i := uint16(0); i < nwqid; i++ {
		off := 2 + int(i)*QidLen
		if err := verifyQidBytes(dot.Body()[off : off+QidLen]); err != nil {
			return nil, err
		}
	}
	return Rwalk(dot), nil
}

func parseTopen(dot msg, _ *bufio.Reader, _ bool) (Msg, error)  { return Topen(dot), nil }
func parseRopen(dot msg, _ *bufio.Reader, _ bool) (Msg, error) {
	if err := verifyQidBytes(dot.Body()[:QidLen]); err != nil {
		return nil, err
	}
	return Ropen(dot), nil
}

func parseTcreate(dot msg, _ *bufio.Reader, unix bool) (Msg, error) {
	padding := 5 // perm[4] mode[1]
	if unix {
		padding += 2 // minimum size of the trailing extension[s]
	}
	name, rest, err := verifyField(dot.Body()[4:], false, padding)
	if err != nil {
		return nil, err
	}
	if err := verifyPathElem(name); err != nil {
		return nil, err
	}
	if len(name) > MaxFilenameLen {
		return nil, errLongFilename
	}
	if len(rest) < 5 {
		return nil, errOverSize
	}
	if unix {
		ext, rest2, err := verifyField(rest[5:], true, 0)
		if err != nil {
			return nil, err
		}
		if err := verifyString(ext); err != nil {
			return nil, err
		}
		if len(ext) > MaxExtensionLen {
			return nil, errLongExtension
		}
		if len(rest2) != 0 {
			return nil, errOverSize
		}
	} else if len(rest) != 5 {
		return nil, errOverSize
	}
	return Tcreate(dot), nil
}

func parseRcreate(dot msg, r *bufio.Reader, unix bool) (Msg, error) {
	if _, err := parseRopen(dot, r, unix); err != nil {
		return nil, err
	}
	return Rcreate(dot), nil
}

func parseTread(dot msg, _ *bufio.Reader, _ bool) (Msg, error) {
	offset := guint64(dot.Body()[4:12])
	if offset > MaxOffset {
		return nil, errMaxOffset
	}
	return Tread(dot), nil
}

type limitedCloser struct{ io.Reader }

func (limitedCloser) Close() error { return nil }

func parseRread(dot msg, r *bufio.Reader, _ bool) (Msg, error) {
	count := int64(guint32(dot.Body()[:4]))
	realSize := count + 7 // type[1] tag[2] count[4]
	if realSize != dot.Len() {
		if realSize < dot.Len() {
			return nil, errUnderSize
		}
		return nil, errOverSize
	}
	if int64(len(dot)) >= dot.Len()+4 {
		return Rread{Reader: bytes.NewReader(dot[11:]), m: dot}, nil
	}
	return Rread{Reader: io.LimitReader(r, count), m: dot}, nil
}

func parseTwrite(dot msg, r *bufio.Reader, _ bool) (Msg, error) {
	offset := guint64(dot.Body()[4:12])
	if offset > MaxOffset {
		return nil, errMaxOffset
	}
	count := int64(guint32(dot.Body()[12:16]))
	realSize := count + 19 // type[1] tag[2] fid[4] offset[8] count[4]
	if realSize != dot.Len() {
		if realSize < dot.Len() {
			return nil, errUnderSize
		}
		return nil, errOverSize
	}
	if int64(len(dot)) >= dot.Len()+4 {
		return Twrite{Reader: bytes.NewReader(dot[23:]), m: dot}, nil
	}
	return Twrite{Reader: io.LimitReader(r, count), m: dot}, nil
}

func parseRwrite(dot msg, _ *bufio.Reader, _ bool) (Msg, error) { return Rwrite(dot), nil }
func parseTclunk(dot msg, _ *bufio.Reader, _ bool) (Msg, error) { return Tclunk(dot), nil }
func parseRclunk(dot msg, _ *bufio.Reader, _ bool) (Msg, error) { return Rclunk(dot), nil }
func parseTremove(dot msg, _ *bufio.Reader, _ bool) (Msg, error) { return Tremove(dot), nil }
func parseRremove(dot msg, _ *bufio.Reader, _ bool) (Msg, error) { return Rremove(dot), nil }
func parseTstat(dot msg, _ *bufio.Reader, _ bool) (Msg, error)   { return Tstat(dot), nil }

func verifyStatBytes(data []byte, unix bool) error {
	min := minStatLen
	if unix {
		min = minStatULen
	}
	if len(data) < min {
		return errShortStat
	}
	if len(data) > maxStatLen {
		return errLongStat
	}
	if length := guint64(data[33:41]); length > MaxFileLen {
		return errLongLength
	}
	rest := data[41:]
	nfields := 4
	if unix {
		nfields = 5
	}
	var field []byte
	var err error
	for i := 0; i < nfields; i++ {
		last := i == nfields-1 && !unix
		padding := 0
		if unix && last {
			padding = 12
		}
		field, rest, err = verifyField(rest, last || (unix && i == nfields-1), padding)
		if err != nil {
			return err
		}
		if err := verifyString(field); err != nil {
			return err
		}
		if i == 0 && len(field) > MaxFilenameLen {
			return errLongFilename
		}
		if i > 0 && i < 4 && len(field) > MaxUidLen {
			return errLongUsername
		}
		if unix && i == 4 && len(field) > MaxExtensionLen {
			return errLongExtension
		}
	}
	if unix && len(rest) != 12 {
		return errOverSize
	}
	if !unix && len(rest) != 0 {
		return errOverSize
	}
	return nil
}

func parseRstat(dot msg, _ *bufio.Reader, unix bool) (Msg, error) {
	stat, rest, err := verifyField(dot.Body(), true, 0)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errOverSize
	}
	if err := verifyStatBytes(stat, unix); err != nil {
		return nil, err
	}
	return Rstat(dot), nil
}

func parseTwstat(dot msg, _ *bufio.Reader, unix bool) (Msg, error) {
	stat, rest, err := verifyField(dot.Body()[4:], true, 0)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errOverSize
	}
	if err := verifyStatBytes(stat, unix); err != nil {
		return nil, err
	}
	return Twstat(dot), nil
}

func parseRwstat(dot msg, _ *bufio.Reader, _ bool) (Msg, error) { return Rwstat(dot), nil }
