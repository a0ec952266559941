package ninep

import "fmt"

// Error is the error type a Backend method should return when it
// wants precise control over the Rerror reply -- in particular, its
// 9P2000.u errno. Any other error value returned by a Backend is
// reported to the client as EIO, with the original error's message
// text as ename; the distinction only affects the wire, never the Go
// control flow, so existing code that just returns plain errors keeps
// working.
type Error struct {
	Ename string
	Errno uint32
}

func (e *Error) Error() string { return e.Ename }

// Errorf builds an *Error with a generic (EIO) errno and a formatted
// message, for the common case of a Backend that doesn't care about
// 9P2000.u-specific numeric codes.
func Errorf(format string, args ...interface{}) *Error {
	return &Error{Ename: fmt.Sprintf(format, args...), Errno: EIO}
}

// A representative subset of the Linux errno values used by 9P2000.u
// implementations. Backends are free to use any other value; these
// are provided as the common, named cases, not an exhaustive table.
const (
	EPERM   uint32 = 1
	ENOENT  uint32 = 2
	EIO     uint32 = 5
	EEXIST  uint32 = 17
	ENOTDIR uint32 = 20
	EISDIR  uint32 = 21
	EINVAL  uint32 = 22
	EMFILE  uint32 = 24
	EFBIG   uint32 = 27
	ENOSPC  uint32 = 28
	EROFS   uint32 = 30
	ERANGE  uint32 = 34
	ENOSYS  uint32 = 38
	ENOTEMPTY uint32 = 39
)

// toWireError normalizes any error returned by a Backend (or
// encountered internally, such as a malformed message) into an *Error
// suitable for WriteRerror.
func toWireError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Ename: err.Error(), Errno: EIO}
}

// ErrNotImplemented is a convenience a Backend can return from any
// method it doesn't support; the connection reports it to the client
// as an Rerror with errno EIO rather than crashing the connection.
var ErrNotImplemented = Errorf("not implemented")
