// Package dispatch fans blockchain engine events out to publish notifiers.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/bsv-blockchain/go-sdk/transaction"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/VanDung-dev/HieraChain-Notify/chain"
	"github.com/VanDung-dev/HieraChain-Notify/config"
	"github.com/VanDung-dev/HieraChain-Notify/notify"
)

// Descriptor describes an active notifier.
type Descriptor struct {
	Type          string `json:"type"`
	Address       string `json:"address"`
	HighWaterMark int    `json:"hwm"`
}

// Dispatcher owns a set of notifiers and forwards engine events to them.
type Dispatcher struct {
	log     *zap.Logger
	pending []notify.Notifier

	mu     sync.RWMutex
	active []notify.Notifier
}

// New creates a dispatcher for the given notifiers. They are not initialized
// until Initialize is called.
func New(log *zap.Logger, notifiers ...notify.Notifier) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		log:     log,
		pending: notifiers,
	}
}

// FromConfig builds one notifier per configured entry on registry.
func FromConfig(cfg config.Config, registry *notify.Registry, log *zap.Logger, opts ...notify.Option) (*Dispatcher, error) {
	notifiers := make([]notify.Notifier, 0, len(cfg.Notifiers))
	for _, nc := range cfg.Notifiers {
		n, err := notify.New(nc.Type, registry, nc.Address, nc.HighWaterMark, opts...)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	return New(log, notifiers...), nil
}

// Initialize initializes every pending notifier. Notifiers that fail are
// logged, left out of the active set and reported in the returned error;
// the others stay active.
func (d *Dispatcher) Initialize(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs error
	for _, n := range d.pending {
		if err := n.Initialize(ctx); err != nil {
			d.log.Error("notifier failed",
				zap.String("type", n.Type()),
				zap.String("address", n.Address()),
				zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s at %s: %w", n.Type(), n.Address(), err))
			continue
		}
		d.log.Info("notifier ready",
			zap.String("type", n.Type()),
			zap.String("address", n.Address()))
		d.active = append(d.active, n)
	}
	d.pending = nil
	return errs
}

// Shutdown shuts every active notifier down and empties the active set.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, n := range d.active {
		d.log.Debug("shutdown notifier", zap.String("type", n.Type()), zap.String("address", n.Address()))
		n.Shutdown()
	}
	d.active = nil
}

// ActiveNotifiers describes the initialized notifiers.
func (d *Dispatcher) ActiveNotifiers() []Descriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Descriptor, 0, len(d.active))
	for _, n := range d.active {
		out = append(out, Descriptor{
			Type:          n.Type(),
			Address:       n.Address(),
			HighWaterMark: n.HighWaterMark(),
		})
	}
	return out
}

// forEach calls fn on every active notifier and collects failures. A failing
// notifier stays active.
func (d *Dispatcher) forEach(event string, fn func(n notify.Notifier) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var errs error
	for _, n := range d.active {
		if err := fn(n); err != nil {
			d.log.Warn("notification dropped",
				zap.String("event", event),
				zap.String("type", n.Type()),
				zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// UpdatedBlockTip announces a new chain tip. Nothing is published during
// initial download or when blocks were only disconnected (newTip == forkPoint).
func (d *Dispatcher) UpdatedBlockTip(newTip, forkPoint *chain.BlockIndex, initialDownload bool) error {
	if initialDownload || newTip == forkPoint {
		return nil
	}
	return d.forEach("updated block tip", func(n notify.Notifier) error {
		return multierr.Append(n.NotifyBlock(newTip), n.NotifyChainTipChanged(newTip))
	})
}

// TransactionAddedToMempool announces a transaction accepted into the mempool.
func (d *Dispatcher) TransactionAddedToMempool(tx *transaction.Transaction, fee int64, mempoolSequence uint64) error {
	return d.forEach("transaction added", func(n notify.Notifier) error {
		return multierr.Combine(
			n.NotifyTransaction(tx),
			n.NotifyTransactionAcceptance(tx, mempoolSequence),
			n.NotifyMempoolTransactionAdded(tx, fee),
		)
	})
}

// TransactionRemovedFromMempool announces a transaction leaving the mempool.
// Removals for block inclusion only reach the mempoolremoved topic; the
// sequence topic reports those through the block connect.
func (d *Dispatcher) TransactionRemovedFromMempool(tx *transaction.Transaction, reason chain.RemovalReason, mempoolSequence uint64) error {
	return d.forEach("transaction removed", func(n notify.Notifier) error {
		err := n.NotifyMempoolTransactionRemoved(tx, reason)
		if reason != chain.ReasonBlock {
			err = multierr.Append(err, n.NotifyTransactionRemoval(tx, mempoolSequence))
		}
		return err
	})
}

// TransactionReplacedInMempool announces a replace-by-fee.
func (d *Dispatcher) TransactionReplacedInMempool(replaced *transaction.Transaction, replacedFee int64, replacement *transaction.Transaction, replacementFee int64) error {
	return d.forEach("transaction replaced", func(n notify.Notifier) error {
		return n.NotifyMempoolTransactionReplaced(replaced, replacedFee, replacement, replacementFee)
	})
}

// TransactionConfirmed announces a mempool transaction included in the block at index.
func (d *Dispatcher) TransactionConfirmed(tx *transaction.Transaction, index *chain.BlockIndex) error {
	return d.forEach("transaction confirmed", func(n notify.Notifier) error {
		return n.NotifyMempoolTransactionConfirmed(tx, index)
	})
}

// BlockConnected announces every transaction of a connected block, then the
// block itself.
func (d *Dispatcher) BlockConnected(block *chain.Block, index *chain.BlockIndex) error {
	return d.forEach("block connected", func(n notify.Notifier) error {
		var err error
		for _, tx := range block.Transactions {
			err = multierr.Append(err, n.NotifyTransaction(tx))
		}
		return multierr.Combine(err,
			n.NotifyBlockConnect(index),
			n.NotifyChainBlockConnected(index),
		)
	})
}

// BlockDisconnected announces every transaction of a disconnected block, then
// the disconnection.
func (d *Dispatcher) BlockDisconnected(block *chain.Block, index *chain.BlockIndex) error {
	return d.forEach("block disconnected", func(n notify.Notifier) error {
		var err error
		for _, tx := range block.Transactions {
			err = multierr.Append(err, n.NotifyTransaction(tx))
		}
		return multierr.Append(err, n.NotifyBlockDisconnect(index))
	})
}

// HeaderAdded announces a header accepted into the block index.
func (d *Dispatcher) HeaderAdded(index *chain.BlockIndex) error {
	return d.forEach("header added", func(n notify.Notifier) error {
		return n.NotifyChainHeaderAdded(index)
	})
}
