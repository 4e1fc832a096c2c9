package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/redis/go-redis/v9"

	"github.com/VanDung-dev/HieraChain-Notify/chain"
)

// BlocksKey is the Redis hash holding serialized blocks by hex hash.
var BlocksKey = "blocks"

// RedisBlockStore reads serialized blocks from a Redis hash.
type RedisBlockStore struct {
	db *redis.Client
}

// NewRedisBlockStore connects to the Redis server at connString
// (e.g. "redis://localhost:6379/0").
func NewRedisBlockStore(connString string) (*RedisBlockStore, error) {
	opts, err := redis.ParseURL(connString)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisBlockStore{db: redis.NewClient(opts)}, nil
}

// Put stores the serialized block under its hash.
func (s *RedisBlockStore) Put(ctx context.Context, block *chain.Block) error {
	hash := block.Hash()
	return s.db.HSet(ctx, BlocksKey, hash.String(), block.Bytes()).Err()
}

// Remove deletes the block with the given hash.
func (s *RedisBlockStore) Remove(ctx context.Context, hash chainhash.Hash) error {
	return s.db.HDel(ctx, BlocksKey, hash.String()).Err()
}

// ReadRawBlock implements chain.BlockReader.
func (s *RedisBlockStore) ReadRawBlock(ctx context.Context, index *chain.BlockIndex) ([]byte, error) {
	raw, err := s.db.HGet(ctx, BlocksKey, index.Hash.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", chain.ErrBlockNotFound, index.Hash.String())
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Close closes the Redis client.
func (s *RedisBlockStore) Close() error {
	return s.db.Close()
}
