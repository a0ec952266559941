// Package proto implements the wire encoding for the 9P2000 and
// 9P2000.u distributed resource protocols: message framing, the
// per-message-type codec, QIDs, and the stat directory-entry record.
//
// Messages are not unmarshaled into structs. Each message type is a
// named []byte with accessor methods that read fields directly out of
// the wire bytes, so a Decoder only copies a message once, into its
// internal buffer, and Twrite/Rread bodies can be streamed straight
// from the connection instead of being buffered in full.
package proto
