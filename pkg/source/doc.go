// Package source implements the client side of the two legacy protocols used
// to push an encoded audio stream to a streaming relay: the ICY (Shoutcast)
// source protocol and the HTTP-based Icecast2 source protocol.
//
//   - Single blocking connection per Conn, no internal reconnect or pacing
//   - ICY metadata capability detection during the handshake
//   - In-stream metadata updates over an ephemeral admin request, with
//     configurable character encoding for non-ASCII values
//
// The caller owns pacing and reconnect policy; a Conn is a plain io.Writer
// once connected and is not safe for concurrent use.
package source
