package notify

import "fmt"

// Notifier types, as used in configuration.
const (
	TypeHashBlock        = "pubhashblock"
	TypeHashTx           = "pubhashtx"
	TypeRawBlock         = "pubrawblock"
	TypeRawTx            = "pubrawtx"
	TypeSequence         = "pubsequence"
	TypeMempoolAdded     = "pubmempooladded"
	TypeMempoolRemoved   = "pubmempoolremoved"
	TypeMempoolReplaced  = "pubmempoolreplaced"
	TypeMempoolConfirmed = "pubmempoolconfirmed"
	TypeChainConnected   = "pubchainconnected"
	TypeChainTipChanged  = "pubchaintipchanged"
	TypeChainHeaderAdded = "pubchainheaderadded"
)

type constructor func(registry *Registry, address string, hwm int, opts ...Option) Notifier

var constructors = map[string]constructor{
	TypeHashBlock: func(r *Registry, a string, h int, o ...Option) Notifier { return NewHashBlockNotifier(r, a, h, o...) },
	TypeHashTx:    func(r *Registry, a string, h int, o ...Option) Notifier { return NewHashTxNotifier(r, a, h, o...) },
	TypeRawBlock:  func(r *Registry, a string, h int, o ...Option) Notifier { return NewRawBlockNotifier(r, a, h, o...) },
	TypeRawTx:     func(r *Registry, a string, h int, o ...Option) Notifier { return NewRawTxNotifier(r, a, h, o...) },
	TypeSequence:  func(r *Registry, a string, h int, o ...Option) Notifier { return NewSequenceNotifier(r, a, h, o...) },
	TypeMempoolAdded: func(r *Registry, a string, h int, o ...Option) Notifier {
		return NewMempoolAddedNotifier(r, a, h, o...)
	},
	TypeMempoolRemoved: func(r *Registry, a string, h int, o ...Option) Notifier {
		return NewMempoolRemovedNotifier(r, a, h, o...)
	},
	TypeMempoolReplaced: func(r *Registry, a string, h int, o ...Option) Notifier {
		return NewMempoolReplacedNotifier(r, a, h, o...)
	},
	TypeMempoolConfirmed: func(r *Registry, a string, h int, o ...Option) Notifier {
		return NewMempoolConfirmedNotifier(r, a, h, o...)
	},
	TypeChainConnected: func(r *Registry, a string, h int, o ...Option) Notifier {
		return NewChainConnectedNotifier(r, a, h, o...)
	},
	TypeChainTipChanged: func(r *Registry, a string, h int, o ...Option) Notifier {
		return NewChainTipChangedNotifier(r, a, h, o...)
	},
	TypeChainHeaderAdded: func(r *Registry, a string, h int, o ...Option) Notifier {
		return NewChainHeaderAddedNotifier(r, a, h, o...)
	},
}

// Types lists every notifier type in a stable order.
func Types() []string {
	return []string{
		TypeHashBlock,
		TypeHashTx,
		TypeRawBlock,
		TypeRawTx,
		TypeSequence,
		TypeMempoolAdded,
		TypeMempoolRemoved,
		TypeMempoolReplaced,
		TypeMempoolConfirmed,
		TypeChainConnected,
		TypeChainTipChanged,
		TypeChainHeaderAdded,
	}
}

// New creates the notifier for typ, bound to address on registry.
func New(typ string, registry *Registry, address string, hwm int, opts ...Option) (Notifier, error) {
	ctor, ok := constructors[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	return ctor(registry, address, hwm, opts...), nil
}
