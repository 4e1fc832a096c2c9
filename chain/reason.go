package chain

import "fmt"

// RemovalReason says why a transaction left the mempool.
type RemovalReason int32

// Removal reasons. The numeric values are part of the wire format.
const (
	ReasonExpiry RemovalReason = iota
	ReasonSizeLimit
	ReasonReorg
	ReasonBlock
	ReasonConflict
	ReasonReplaced
)

var reasonNames = map[RemovalReason]string{
	ReasonExpiry:    "expiry",
	ReasonSizeLimit: "sizelimit",
	ReasonReorg:     "reorg",
	ReasonBlock:     "block",
	ReasonConflict:  "conflict",
	ReasonReplaced:  "replaced",
}

func (r RemovalReason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int32(r))
}
