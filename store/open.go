package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/VanDung-dev/HieraChain-Notify/chain"
)

// BlockStore is a writable block source.
type BlockStore interface {
	chain.BlockReader
	Put(ctx context.Context, block *chain.Block) error
}

// Open returns the block store for url: "" or "memory://" for an in-memory
// store, "redis://" or "rediss://" for Redis.
func Open(url string) (BlockStore, error) {
	switch {
	case url == "" || url == "memory://":
		return NewMemoryBlockStore(), nil
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return NewRedisBlockStore(url)
	default:
		return nil, fmt.Errorf("unsupported block store %q", url)
	}
}
