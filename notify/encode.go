package notify

import (
	"encoding/binary"
	"time"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/VanDung-dev/HieraChain-Notify/chain"
)

// EncodeHash returns the hash in reversed (display) byte order.
func EncodeHash(h chainhash.Hash) []byte {
	out := make([]byte, chainhash.HashSize)
	for i := 0; i < chainhash.HashSize; i++ {
		out[chainhash.HashSize-1-i] = h[i]
	}
	return out
}

// EncodeInt64 returns v as 8 little-endian bytes.
func EncodeInt64(v int64) []byte {
	return EncodeUint64(uint64(v))
}

// EncodeUint64 returns v as 8 little-endian bytes.
func EncodeUint64(v uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, v)
	return out
}

// EncodeInt32 returns v as 4 little-endian bytes.
func EncodeInt32(v int32) []byte {
	return EncodeUint32(uint32(v))
}

// EncodeUint32 returns v as 4 little-endian bytes.
func EncodeUint32(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

// EncodeTimestamp returns t as milliseconds since the Unix epoch.
func EncodeTimestamp(t time.Time) []byte {
	return EncodeInt64(t.UnixMilli())
}

// EncodeBlob passes pre-serialized bytes through unchanged.
func EncodeBlob(b []byte) []byte {
	return b
}

// EncodeTransaction returns the network serialization of tx.
func EncodeTransaction(tx *transaction.Transaction) []byte {
	return EncodeBlob(tx.Bytes())
}

// EncodeHeader returns the network serialization of h.
func EncodeHeader(h *chain.BlockHeader) []byte {
	return EncodeBlob(h.Bytes())
}

// EncodeRemovalReason returns the reason code as 4 little-endian bytes.
func EncodeRemovalReason(r chain.RemovalReason) []byte {
	return EncodeInt32(int32(r))
}
