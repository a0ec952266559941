// Package ninep implements the server side of the 9P2000 and 9P2000.u
// distributed resource protocols: message framing and dispatch, the
// in-flight request table, and Tflush cancellation, behind a narrow
// Backend interface that supplies the actual filesystem semantics.
//
// The wire codec lives in the proto subpackage; this package owns
// everything above it -- negotiating a Dialect during Tversion,
// tracking one in-flight transaction table per connection, and
// translating Backend results and errors into replies.
package ninep
