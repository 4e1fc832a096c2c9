package notify

import (
	"context"

	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/VanDung-dev/HieraChain-Notify/chain"
)

// Events is the set of engine events a notifier can publish. A notifier type
// implements the methods for the events it serves and inherits no-ops for
// the rest from NopEvents.
type Events interface {
	NotifyBlock(index *chain.BlockIndex) error
	NotifyTransaction(tx *transaction.Transaction) error
	NotifyBlockConnect(index *chain.BlockIndex) error
	NotifyBlockDisconnect(index *chain.BlockIndex) error
	NotifyTransactionAcceptance(tx *transaction.Transaction, mempoolSequence uint64) error
	NotifyTransactionRemoval(tx *transaction.Transaction, mempoolSequence uint64) error
	NotifyMempoolTransactionAdded(tx *transaction.Transaction, fee int64) error
	NotifyMempoolTransactionRemoved(tx *transaction.Transaction, reason chain.RemovalReason) error
	NotifyMempoolTransactionReplaced(replaced *transaction.Transaction, replacedFee int64, replacement *transaction.Transaction, replacementFee int64) error
	NotifyMempoolTransactionConfirmed(tx *transaction.Transaction, index *chain.BlockIndex) error
	NotifyChainBlockConnected(index *chain.BlockIndex) error
	NotifyChainTipChanged(index *chain.BlockIndex) error
	NotifyChainHeaderAdded(index *chain.BlockIndex) error
}

// Notifier is a publisher bound to one topic type.
type Notifier interface {
	Events

	Type() string
	Address() string
	HighWaterMark() int
	Sequence() uint32
	Initialize(ctx context.Context) error
	Shutdown()
}

// NopEvents ignores every event.
type NopEvents struct{}

func (NopEvents) NotifyBlock(*chain.BlockIndex) error                                { return nil }
func (NopEvents) NotifyTransaction(*transaction.Transaction) error                   { return nil }
func (NopEvents) NotifyBlockConnect(*chain.BlockIndex) error                         { return nil }
func (NopEvents) NotifyBlockDisconnect(*chain.BlockIndex) error                      { return nil }
func (NopEvents) NotifyChainBlockConnected(*chain.BlockIndex) error                  { return nil }
func (NopEvents) NotifyChainTipChanged(*chain.BlockIndex) error                      { return nil }
func (NopEvents) NotifyChainHeaderAdded(*chain.BlockIndex) error                     { return nil }
func (NopEvents) NotifyTransactionAcceptance(*transaction.Transaction, uint64) error { return nil }
func (NopEvents) NotifyTransactionRemoval(*transaction.Transaction, uint64) error    { return nil }
func (NopEvents) NotifyMempoolTransactionAdded(*transaction.Transaction, int64) error {
	return nil
}
func (NopEvents) NotifyMempoolTransactionRemoved(*transaction.Transaction, chain.RemovalReason) error {
	return nil
}
func (NopEvents) NotifyMempoolTransactionReplaced(*transaction.Transaction, int64, *transaction.Transaction, int64) error {
	return nil
}
func (NopEvents) NotifyMempoolTransactionConfirmed(*transaction.Transaction, *chain.BlockIndex) error {
	return nil
}
