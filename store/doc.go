// Package store provides block body sources for raw block notifications.
// This package implements:
// - MemoryBlockStore: in-process map of blocks
// - RedisBlockStore: serialized blocks in a Redis hash
package store
