package notify

import (
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"go.uber.org/zap"

	"github.com/VanDung-dev/HieraChain-Notify/chain"
)

// Message topics
const (
	TopicHashBlock        = "hashblock"
	TopicHashTx           = "hashtx"
	TopicRawBlock         = "rawblock"
	TopicRawTx            = "rawtx"
	TopicSequence         = "sequence"
	TopicMempoolAdded     = "mempooladded"
	TopicMempoolRemoved   = "mempoolremoved"
	TopicMempoolReplaced  = "mempoolreplaced"
	TopicMempoolConfirmed = "mempoolconfirmed"
	TopicChainConnected   = "chainconnected"
	TopicChainTipChanged  = "chaintipchanged"
	TopicChainHeaderAdded = "chainheaderadded"
)

// Sequence topic labels, appended after the hash.
const (
	LabelBlockConnect    byte = 'C'
	LabelBlockDisconnect byte = 'D'
	LabelTxAcceptance    byte = 'A'
	LabelTxRemoval       byte = 'R'
)

// HashBlockNotifier publishes the hash of every new tip block.
type HashBlockNotifier struct {
	*Publisher
	NopEvents
}

// NewHashBlockNotifier creates a "pubhashblock" notifier.
func NewHashBlockNotifier(registry *Registry, address string, hwm int, opts ...Option) *HashBlockNotifier {
	return &HashBlockNotifier{Publisher: newPublisher(TypeHashBlock, registry, address, hwm, opts...)}
}

func (n *HashBlockNotifier) NotifyBlock(index *chain.BlockIndex) error {
	n.log.Debug("publish hashblock", zap.String("hash", index.Hash.String()))
	return n.sendCommand(TopicHashBlock, EncodeHash(index.Hash))
}

// HashTxNotifier publishes the id of every transaction seen.
type HashTxNotifier struct {
	*Publisher
	NopEvents
}

// NewHashTxNotifier creates a "pubhashtx" notifier.
func NewHashTxNotifier(registry *Registry, address string, hwm int, opts ...Option) *HashTxNotifier {
	return &HashTxNotifier{Publisher: newPublisher(TypeHashTx, registry, address, hwm, opts...)}
}

func (n *HashTxNotifier) NotifyTransaction(tx *transaction.Transaction) error {
	txid := tx.TxID()
	n.log.Debug("publish hashtx", zap.String("hash", txid.String()))
	return n.sendCommand(TopicHashTx, EncodeHash(*txid))
}

// RawBlockNotifier publishes the full serialized body of every new tip block.
// The body comes from the configured chain.BlockReader.
type RawBlockNotifier struct {
	*Publisher
	NopEvents
}

// NewRawBlockNotifier creates a "pubrawblock" notifier.
func NewRawBlockNotifier(registry *Registry, address string, hwm int, opts ...Option) *RawBlockNotifier {
	return &RawBlockNotifier{Publisher: newPublisher(TypeRawBlock, registry, address, hwm, opts...)}
}

func (n *RawBlockNotifier) NotifyBlock(index *chain.BlockIndex) error {
	n.log.Debug("publish rawblock", zap.String("hash", index.Hash.String()))
	raw, err := n.readBlock(index)
	if err != nil {
		return err
	}
	return n.sendCommand(TopicRawBlock, EncodeBlob(raw))
}

// RawTxNotifier publishes every transaction seen.
type RawTxNotifier struct {
	*Publisher
	NopEvents
}

// NewRawTxNotifier creates a "pubrawtx" notifier.
func NewRawTxNotifier(registry *Registry, address string, hwm int, opts ...Option) *RawTxNotifier {
	return &RawTxNotifier{Publisher: newPublisher(TypeRawTx, registry, address, hwm, opts...)}
}

func (n *RawTxNotifier) NotifyTransaction(tx *transaction.Transaction) error {
	n.log.Debug("publish rawtx", zap.String("hash", tx.TxID().String()))
	return n.sendCommand(TopicRawTx, EncodeTransaction(tx))
}

// SequenceNotifier publishes block (dis)connections and mempool
// acceptance/removal as a hash followed by a one-byte label.
type SequenceNotifier struct {
	*Publisher
	NopEvents
}

// NewSequenceNotifier creates a "pubsequence" notifier.
func NewSequenceNotifier(registry *Registry, address string, hwm int, opts ...Option) *SequenceNotifier {
	return &SequenceNotifier{Publisher: newPublisher(TypeSequence, registry, address, hwm, opts...)}
}

func (n *SequenceNotifier) NotifyBlockConnect(index *chain.BlockIndex) error {
	n.log.Debug("publish sequence block connect", zap.String("hash", index.Hash.String()))
	return n.sendCommand(TopicSequence, sequenceBody(index.Hash, LabelBlockConnect))
}

func (n *SequenceNotifier) NotifyBlockDisconnect(index *chain.BlockIndex) error {
	n.log.Debug("publish sequence block disconnect", zap.String("hash", index.Hash.String()))
	return n.sendCommand(TopicSequence, sequenceBody(index.Hash, LabelBlockDisconnect))
}

func (n *SequenceNotifier) NotifyTransactionAcceptance(tx *transaction.Transaction, mempoolSequence uint64) error {
	txid := tx.TxID()
	n.log.Debug("publish sequence mempool acceptance", zap.String("hash", txid.String()))
	body := append(sequenceBody(*txid, LabelTxAcceptance), EncodeUint64(mempoolSequence)...)
	return n.sendCommand(TopicSequence, body)
}

func (n *SequenceNotifier) NotifyTransactionRemoval(tx *transaction.Transaction, mempoolSequence uint64) error {
	txid := tx.TxID()
	n.log.Debug("publish sequence mempool removal", zap.String("hash", txid.String()))
	body := append(sequenceBody(*txid, LabelTxRemoval), EncodeUint64(mempoolSequence)...)
	return n.sendCommand(TopicSequence, body)
}

func sequenceBody(h chainhash.Hash, label byte) []byte {
	body := make([]byte, 0, chainhash.HashSize+1+8)
	body = append(body, EncodeHash(h)...)
	return append(body, label)
}

// MempoolAddedNotifier publishes transactions entering the mempool with their fee.
type MempoolAddedNotifier struct {
	*Publisher
	NopEvents
}

// NewMempoolAddedNotifier creates a "pubmempooladded" notifier.
func NewMempoolAddedNotifier(registry *Registry, address string, hwm int, opts ...Option) *MempoolAddedNotifier {
	return &MempoolAddedNotifier{Publisher: newPublisher(TypeMempoolAdded, registry, address, hwm, opts...)}
}

func (n *MempoolAddedNotifier) NotifyMempoolTransactionAdded(tx *transaction.Transaction, fee int64) error {
	txid := tx.TxID()
	n.log.Debug("publish mempooladded", zap.String("hash", txid.String()))
	return n.sendMessage(TopicMempoolAdded,
		EncodeHash(*txid),
		EncodeTransaction(tx),
		EncodeInt64(fee),
	)
}

// MempoolRemovedNotifier publishes transactions leaving the mempool with the
// removal reason as a 4-byte little-endian code.
type MempoolRemovedNotifier struct {
	*Publisher
	NopEvents
}

// NewMempoolRemovedNotifier creates a "pubmempoolremoved" notifier.
func NewMempoolRemovedNotifier(registry *Registry, address string, hwm int, opts ...Option) *MempoolRemovedNotifier {
	return &MempoolRemovedNotifier{Publisher: newPublisher(TypeMempoolRemoved, registry, address, hwm, opts...)}
}

func (n *MempoolRemovedNotifier) NotifyMempoolTransactionRemoved(tx *transaction.Transaction, reason chain.RemovalReason) error {
	txid := tx.TxID()
	n.log.Debug("publish mempoolremoved", zap.String("hash", txid.String()), zap.Stringer("reason", reason))
	return n.sendMessage(TopicMempoolRemoved,
		EncodeHash(*txid),
		EncodeTransaction(tx),
		EncodeRemovalReason(reason),
	)
}

// MempoolReplacedNotifier publishes replace-by-fee events.
type MempoolReplacedNotifier struct {
	*Publisher
	NopEvents
}

// NewMempoolReplacedNotifier creates a "pubmempoolreplaced" notifier.
func NewMempoolReplacedNotifier(registry *Registry, address string, hwm int, opts ...Option) *MempoolReplacedNotifier {
	return &MempoolReplacedNotifier{Publisher: newPublisher(TypeMempoolReplaced, registry, address, hwm, opts...)}
}

func (n *MempoolReplacedNotifier) NotifyMempoolTransactionReplaced(replaced *transaction.Transaction, replacedFee int64, replacement *transaction.Transaction, replacementFee int64) error {
	replacedID, replacementID := replaced.TxID(), replacement.TxID()
	n.log.Debug("publish mempoolreplaced",
		zap.String("hash", replacedID.String()),
		zap.String("replacement", replacementID.String()))
	return n.sendMessage(TopicMempoolReplaced,
		EncodeHash(*replacedID),
		EncodeTransaction(replaced),
		EncodeInt64(replacedFee),
		EncodeHash(*replacementID),
		EncodeTransaction(replacement),
		EncodeInt64(replacementFee),
	)
}

// MempoolConfirmedNotifier publishes mempool transactions included in a block.
type MempoolConfirmedNotifier struct {
	*Publisher
	NopEvents
}

// NewMempoolConfirmedNotifier creates a "pubmempoolconfirmed" notifier.
func NewMempoolConfirmedNotifier(registry *Registry, address string, hwm int, opts ...Option) *MempoolConfirmedNotifier {
	return &MempoolConfirmedNotifier{Publisher: newPublisher(TypeMempoolConfirmed, registry, address, hwm, opts...)}
}

func (n *MempoolConfirmedNotifier) NotifyMempoolTransactionConfirmed(tx *transaction.Transaction, index *chain.BlockIndex) error {
	txid := tx.TxID()
	n.log.Debug("publish mempoolconfirmed", zap.String("hash", txid.String()))
	return n.sendMessage(TopicMempoolConfirmed,
		EncodeHash(*txid),
		EncodeTransaction(tx),
		EncodeInt32(index.Height),
		EncodeHash(index.Hash),
		EncodeHeader(&index.Header),
	)
}

// ChainConnectedNotifier publishes every block connected to the active chain
// with its height, parent and full body.
type ChainConnectedNotifier struct {
	*Publisher
	NopEvents
}

// NewChainConnectedNotifier creates a "pubchainconnected" notifier.
func NewChainConnectedNotifier(registry *Registry, address string, hwm int, opts ...Option) *ChainConnectedNotifier {
	return &ChainConnectedNotifier{Publisher: newPublisher(TypeChainConnected, registry, address, hwm, opts...)}
}

func (n *ChainConnectedNotifier) NotifyChainBlockConnected(index *chain.BlockIndex) error {
	n.log.Debug("publish chainconnected", zap.String("hash", index.Hash.String()))
	raw, err := n.readBlock(index)
	if err != nil {
		return err
	}
	return n.sendMessage(TopicChainConnected,
		EncodeHash(index.Hash),
		EncodeInt32(index.Height),
		EncodeHash(index.Header.PrevBlock),
		EncodeBlob(raw),
	)
}

// ChainTipChangedNotifier publishes the new tip after every tip update.
type ChainTipChangedNotifier struct {
	*Publisher
	NopEvents
}

// NewChainTipChangedNotifier creates a "pubchaintipchanged" notifier.
func NewChainTipChangedNotifier(registry *Registry, address string, hwm int, opts ...Option) *ChainTipChangedNotifier {
	return &ChainTipChangedNotifier{Publisher: newPublisher(TypeChainTipChanged, registry, address, hwm, opts...)}
}

func (n *ChainTipChangedNotifier) NotifyChainTipChanged(index *chain.BlockIndex) error {
	n.log.Debug("publish chaintipchanged", zap.String("hash", index.Hash.String()))
	return n.sendMessage(TopicChainTipChanged, headerPayload(index)...)
}

// ChainHeaderAddedNotifier publishes every header accepted into the block index.
type ChainHeaderAddedNotifier struct {
	*Publisher
	NopEvents
}

// NewChainHeaderAddedNotifier creates a "pubchainheaderadded" notifier.
func NewChainHeaderAddedNotifier(registry *Registry, address string, hwm int, opts ...Option) *ChainHeaderAddedNotifier {
	return &ChainHeaderAddedNotifier{Publisher: newPublisher(TypeChainHeaderAdded, registry, address, hwm, opts...)}
}

func (n *ChainHeaderAddedNotifier) NotifyChainHeaderAdded(index *chain.BlockIndex) error {
	n.log.Debug("publish chainheaderadded", zap.String("hash", index.Hash.String()))
	return n.sendMessage(TopicChainHeaderAdded, headerPayload(index)...)
}

// headerPayload is [hash][height][header].
func headerPayload(index *chain.BlockIndex) [][]byte {
	return [][]byte{
		EncodeHash(index.Hash),
		EncodeInt32(index.Height),
		EncodeHeader(&index.Header),
	}
}
