package subscriber

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-zeromq/zmq4"
	"go.uber.org/zap"
)

// Handler processes one received message.
type Handler func(msg Message, gap uint32) error

// Receiver is the receiving half of a subscription.
type Receiver interface {
	Recv() ([][]byte, error)
	Close() error
}

type zmqReceiver struct {
	sock zmq4.Socket
}

// Dial connects a ZeroMQ SUB socket to address, subscribed to topics. No
// topics subscribes to everything.
func Dial(ctx context.Context, address string, topics ...string) (Receiver, error) {
	sock := zmq4.NewSub(ctx)
	if len(topics) == 0 {
		topics = []string{""}
	}
	for _, topic := range topics {
		if err := sock.SetOption(zmq4.OptionSubscribe, topic); err != nil {
			sock.Close()
			return nil, fmt.Errorf("failed to subscribe to %q: %w", topic, err)
		}
	}
	if err := sock.Dial(address); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return &zmqReceiver{sock: sock}, nil
}

func (r *zmqReceiver) Recv() ([][]byte, error) {
	msg, err := r.sock.Recv()
	if err != nil {
		return nil, err
	}
	return msg.Frames, nil
}

func (r *zmqReceiver) Close() error {
	return r.sock.Close()
}

// Subscriber reads frames from a Receiver and tracks sequence gaps.
type Subscriber struct {
	recv Receiver
	gaps *GapTracker
	log  *zap.Logger
}

// New creates a subscriber on recv.
func New(recv Receiver, log *zap.Logger) *Subscriber {
	if log == nil {
		log = zap.NewNop()
	}
	return &Subscriber{recv: recv, gaps: NewGapTracker(), log: log}
}

// Gaps returns the subscriber's gap tracker.
func (s *Subscriber) Gaps() *GapTracker { return s.gaps }

// Run receives until ctx is done, the receiver fails or handle returns an
// error. Malformed frames are logged and skipped.
func (s *Subscriber) Run(ctx context.Context, handle Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		parts, err := s.recv.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		msg, err := ParseFrame(parts)
		if err != nil {
			s.log.Warn("skipping frame", zap.Error(err))
			continue
		}
		gap, reset := s.gaps.Observe(msg)
		switch {
		case reset:
			s.log.Warn("sequence went backwards, resyncing",
				zap.String("topic", msg.Topic),
				zap.Uint32("sequence", msg.Sequence))
		case gap > 0:
			s.log.Warn("sequence gap", zap.String("topic", msg.Topic), zap.Uint32("missed", gap))
		}
		if err := handle(msg, gap); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

// ErrStop ends Run without error when returned by a Handler.
var ErrStop = errors.New("stop")

// Close closes the receiver.
func (s *Subscriber) Close() error {
	return s.recv.Close()
}
