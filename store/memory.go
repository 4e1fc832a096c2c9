package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/bsv-blockchain/go-sdk/chainhash"

	"github.com/VanDung-dev/HieraChain-Notify/chain"
)

// MemoryBlockStore keeps blocks in memory, keyed by hash.
type MemoryBlockStore struct {
	blocks map[chainhash.Hash]*chain.Block
	mu     sync.RWMutex
}

// NewMemoryBlockStore creates an empty store.
func NewMemoryBlockStore() *MemoryBlockStore {
	return &MemoryBlockStore{
		blocks: make(map[chainhash.Hash]*chain.Block),
	}
}

// Put stores block under its hash.
func (s *MemoryBlockStore) Put(_ context.Context, block *chain.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[block.Hash()] = block
	return nil
}

// Remove deletes the block with the given hash.
func (s *MemoryBlockStore) Remove(hash chainhash.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blocks[hash]; !ok {
		return false
	}
	delete(s.blocks, hash)
	return true
}

// Size returns the number of stored blocks.
func (s *MemoryBlockStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

// ReadRawBlock implements chain.BlockReader.
func (s *MemoryBlockStore) ReadRawBlock(_ context.Context, index *chain.BlockIndex) ([]byte, error) {
	s.mu.RLock()
	block, ok := s.blocks[index.Hash]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", chain.ErrBlockNotFound, index.Hash.String())
	}
	return block.Bytes(), nil
}
