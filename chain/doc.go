// Package chain defines the blockchain engine types consumed by the notifier.
// This package implements:
// - Block headers, blocks and block index entries
// - Mempool removal reasons
// - The block reader collaborator interface
package chain
