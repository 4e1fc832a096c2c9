package subscriber

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

var (
	// ErrShortFrame is returned for frames without topic and sequence parts.
	ErrShortFrame = errors.New("frame too short")
	// ErrMalformedBody is returned when a body does not match its topic.
	ErrMalformedBody = errors.New("malformed body")
)

// Message is one received frame.
type Message struct {
	Topic    string
	Body     [][]byte
	Sequence uint32
}

// ParseFrame splits a multipart frame into topic, body parts and the
// trailing little-endian sequence number.
func ParseFrame(parts [][]byte) (Message, error) {
	if len(parts) < 2 {
		return Message{}, fmt.Errorf("%w: %d parts", ErrShortFrame, len(parts))
	}
	last := parts[len(parts)-1]
	if len(last) != 4 {
		return Message{}, fmt.Errorf("%w: sequence part is %d bytes", ErrShortFrame, len(last))
	}
	return Message{
		Topic:    string(parts[0]),
		Body:     parts[1 : len(parts)-1],
		Sequence: binary.LittleEndian.Uint32(last),
	}, nil
}

// DecodeHash reverses a wire hash back into a chainhash.Hash.
func DecodeHash(b []byte) (chainhash.Hash, error) {
	var h chainhash.Hash
	if len(b) != chainhash.HashSize {
		return h, fmt.Errorf("%w: hash is %d bytes", ErrMalformedBody, len(b))
	}
	for i := range b {
		h[chainhash.HashSize-1-i] = b[i]
	}
	return h, nil
}

// SequenceEvent is the decoded body of a "sequence" frame.
type SequenceEvent struct {
	Hash  chainhash.Hash
	Label byte
	// MempoolSequence is set for the 'A' and 'R' labels.
	MempoolSequence uint64
	HasMempoolSeq   bool
}

// DecodeSequence decodes a "sequence" topic body.
func DecodeSequence(body []byte) (SequenceEvent, error) {
	var ev SequenceEvent
	switch len(body) {
	case chainhash.HashSize + 1:
	case chainhash.HashSize + 1 + 8:
		ev.MempoolSequence = binary.LittleEndian.Uint64(body[chainhash.HashSize+1:])
		ev.HasMempoolSeq = true
	default:
		return ev, fmt.Errorf("%w: sequence body is %d bytes", ErrMalformedBody, len(body))
	}

	hash, err := DecodeHash(body[:chainhash.HashSize])
	if err != nil {
		return ev, err
	}
	ev.Hash = hash
	ev.Label = body[chainhash.HashSize]

	switch ev.Label {
	case 'C', 'D':
		if ev.HasMempoolSeq {
			return ev, fmt.Errorf("%w: label %c carries a mempool sequence", ErrMalformedBody, ev.Label)
		}
	case 'A', 'R':
		if !ev.HasMempoolSeq {
			return ev, fmt.Errorf("%w: label %c without mempool sequence", ErrMalformedBody, ev.Label)
		}
	default:
		return ev, fmt.Errorf("%w: unknown label %q", ErrMalformedBody, ev.Label)
	}
	return ev, nil
}
