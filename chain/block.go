package chain

import (
	"context"
	"encoding/binary"
	"errors"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/util"
)

// HeaderSize is the length of a serialized block header.
const HeaderSize = 80

// ErrBlockNotFound is returned when a block body cannot be retrieved.
var ErrBlockNotFound = errors.New("block not found")

// BlockHeader is the fixed-size header of a block.
type BlockHeader struct {
	Version    int32          `json:"version"`
	PrevBlock  chainhash.Hash `json:"prev_block"`
	MerkleRoot chainhash.Hash `json:"merkle_root"`
	Timestamp  uint32         `json:"timestamp"`
	Bits       uint32         `json:"bits"`
	Nonce      uint32         `json:"nonce"`
}

// Bytes returns the network serialization of the header.
func (h *BlockHeader) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Version))
	copy(buf[4:36], h.PrevBlock[:])
	copy(buf[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(buf[68:72], h.Timestamp)
	binary.LittleEndian.PutUint32(buf[72:76], h.Bits)
	binary.LittleEndian.PutUint32(buf[76:80], h.Nonce)
	return buf
}

// Hash returns the double SHA-256 of the serialized header.
func (h *BlockHeader) Hash() chainhash.Hash {
	return chainhash.DoubleHashH(h.Bytes())
}

// Block is a header together with its transactions.
type Block struct {
	Header       BlockHeader
	Transactions []*transaction.Transaction
}

// Hash returns the block hash.
func (b *Block) Hash() chainhash.Hash {
	return b.Header.Hash()
}

// Bytes returns the network serialization of the block: header, transaction
// count as a varint, then every transaction.
func (b *Block) Bytes() []byte {
	out := b.Header.Bytes()
	out = append(out, util.VarInt(uint64(len(b.Transactions))).Bytes()...)
	for _, tx := range b.Transactions {
		out = append(out, tx.Bytes()...)
	}
	return out
}

// BlockIndex is the engine's entry for a block known to the chain.
type BlockIndex struct {
	Hash   chainhash.Hash `json:"hash"`
	Height int32          `json:"height"`
	Header BlockHeader    `json:"header"`
}

// NewBlockIndex creates an index entry for header at the given height.
func NewBlockIndex(header BlockHeader, height int32) *BlockIndex {
	return &BlockIndex{
		Hash:   header.Hash(),
		Height: height,
		Header: header,
	}
}

// BlockReader retrieves block bodies by index entry.
type BlockReader interface {
	// ReadRawBlock returns the network serialization of the block. It returns
	// ErrBlockNotFound (possibly wrapped) when the body is not retrievable.
	ReadRawBlock(ctx context.Context, index *BlockIndex) ([]byte, error)
}
