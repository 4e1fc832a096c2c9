package dispatch

import (
	"context"

	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/VanDung-dev/HieraChain-Notify/chain"
)

// Async forwards engine events to a Dispatcher through a Queue. Every hook
// returns as soon as the event is queued; publish failures are logged by the
// queue.
type Async struct {
	d *Dispatcher
	q *Queue
}

// NewAsync wraps d with a queue of the given depth.
func NewAsync(d *Dispatcher, size int) *Async {
	return &Async{d: d, q: NewQueue(d.log.Named("queue"), size)}
}

// Dispatcher returns the wrapped dispatcher.
func (a *Async) Dispatcher() *Dispatcher { return a.d }

// Stats returns queue statistics.
func (a *Async) Stats() QueueStats { return a.q.Stats() }

// Sync waits for every queued event to be published.
func (a *Async) Sync(ctx context.Context) error { return a.q.Sync(ctx) }

// Shutdown drains the queue and then shuts the dispatcher down.
func (a *Async) Shutdown() {
	a.q.Shutdown()
	a.d.Shutdown()
}

func (a *Async) UpdatedBlockTip(newTip, forkPoint *chain.BlockIndex, initialDownload bool) error {
	return a.q.Submit("updated block tip", func() error {
		return a.d.UpdatedBlockTip(newTip, forkPoint, initialDownload)
	})
}

func (a *Async) TransactionAddedToMempool(tx *transaction.Transaction, fee int64, mempoolSequence uint64) error {
	return a.q.Submit("transaction added", func() error {
		return a.d.TransactionAddedToMempool(tx, fee, mempoolSequence)
	})
}

func (a *Async) TransactionRemovedFromMempool(tx *transaction.Transaction, reason chain.RemovalReason, mempoolSequence uint64) error {
	return a.q.Submit("transaction removed", func() error {
		return a.d.TransactionRemovedFromMempool(tx, reason, mempoolSequence)
	})
}

func (a *Async) TransactionReplacedInMempool(replaced *transaction.Transaction, replacedFee int64, replacement *transaction.Transaction, replacementFee int64) error {
	return a.q.Submit("transaction replaced", func() error {
		return a.d.TransactionReplacedInMempool(replaced, replacedFee, replacement, replacementFee)
	})
}

func (a *Async) TransactionConfirmed(tx *transaction.Transaction, index *chain.BlockIndex) error {
	return a.q.Submit("transaction confirmed", func() error {
		return a.d.TransactionConfirmed(tx, index)
	})
}

func (a *Async) BlockConnected(block *chain.Block, index *chain.BlockIndex) error {
	return a.q.Submit("block connected", func() error {
		return a.d.BlockConnected(block, index)
	})
}

func (a *Async) BlockDisconnected(block *chain.Block, index *chain.BlockIndex) error {
	return a.q.Submit("block disconnected", func() error {
		return a.d.BlockDisconnected(block, index)
	})
}

func (a *Async) HeaderAdded(index *chain.BlockIndex) error {
	return a.q.Submit("header added", func() error {
		return a.d.HeaderAdded(index)
	})
}
