// Package notify publishes blockchain state changes over ZeroMQ PUB sockets.
//
// This package implements:
//   - Wire encoding of hashes, integers and serialized chain objects
//   - Registry: one bound socket per address, shared by every notifier on it
//   - Publisher: sequence-numbered multipart send primitives
//   - One notifier type per topic (hashblock, rawtx, sequence, mempooladded, ...)
//
// Every frame ends with a 4-byte little-endian sequence number that starts at
// zero and advances by one per delivered message of the sending notifier.
// Structured topics carry an 8-byte little-endian millisecond timestamp as
// their second part. Hashes are sent byte-reversed, in display order.
//
// Notifiers sharing a bind address share its socket. The socket is configured
// by the first notifier to register: the high water mark of later notifiers
// on the same address is ignored.
package notify
