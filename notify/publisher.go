package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/VanDung-dev/HieraChain-Notify/chain"
)

// DefaultHighWaterMark is the outbound queue depth used when none is configured.
const DefaultHighWaterMark = 1000

// Frame is a message that was handed to the transport.
type Frame struct {
	Topic    string
	Sequence uint32
	Time     time.Time
	Parts    [][]byte
}

// Recorder observes every delivered frame.
type Recorder interface {
	Record(f Frame)
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Publisher) { p.log = log }
}

// WithClock sets the clock used for frame timestamps.
func WithClock(c clock.Clock) Option {
	return func(p *Publisher) { p.clock = c }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m MetricsSink) Option {
	return func(p *Publisher) { p.metrics = m }
}

// WithRecorder sets a recorder that sees every delivered frame.
func WithRecorder(r Recorder) Option {
	return func(p *Publisher) { p.recorder = r }
}

// WithBlockReader sets the source of block bodies for raw block topics.
func WithBlockReader(r chain.BlockReader) Option {
	return func(p *Publisher) { p.reader = r }
}

type state int

const (
	stateUninitialized state = iota
	stateReady
	stateClosed
)

// Publisher holds the bind configuration, lifecycle and sequence counter
// shared by every notifier type.
type Publisher struct {
	typ      string
	address  string
	hwm      int
	registry *Registry

	log      *zap.Logger
	clock    clock.Clock
	metrics  MetricsSink
	recorder Recorder
	reader   chain.BlockReader

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	socket   Socket
	state    state
	sequence uint32
}

func newPublisher(typ string, registry *Registry, address string, hwm int, opts ...Option) *Publisher {
	if hwm <= 0 {
		hwm = DefaultHighWaterMark
	}
	p := &Publisher{
		typ:      typ,
		address:  address,
		hwm:      hwm,
		registry: registry,
		log:      zap.NewNop(),
		clock:    clock.New(),
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(zap.String("type", typ), zap.String("address", address))
	return p
}

// Type returns the notifier type, e.g. "pubhashblock".
func (p *Publisher) Type() string { return p.typ }

// Address returns the bind address.
func (p *Publisher) Address() string { return p.address }

// HighWaterMark returns the configured outbound queue depth. It only takes
// effect if this publisher is the first on its address.
func (p *Publisher) HighWaterMark() int { return p.hwm }

// Sequence returns the sequence number the next message will carry.
func (p *Publisher) Sequence() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sequence
}

// Ready reports whether the publisher can send.
func (p *Publisher) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == stateReady
}

// Initialize acquires the shared socket for the publisher's address. On
// failure the publisher stays uninitialized. Cancelling ctx afterwards does
// not affect the publisher; block reads run until Shutdown.
func (p *Publisher) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != stateUninitialized {
		return ErrAlreadyInitialized
	}

	sock, err := p.registry.Register(ctx, p)
	if err != nil {
		return err
	}

	p.ctx, p.cancel = context.WithCancel(context.WithoutCancel(ctx))
	p.socket = sock
	p.state = stateReady
	return nil
}

// Shutdown releases the publisher's share of its socket. It is a no-op if
// the publisher was never initialized or is already shut down.
func (p *Publisher) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != stateReady {
		return
	}

	p.registry.Deregister(p)
	p.cancel()
	p.socket = nil
	p.state = stateClosed
}

// sendCommand sends the three-part frame [topic][data][sequence].
func (p *Publisher) sendCommand(topic string, data []byte) error {
	return p.send(topic, time.Time{}, [][]byte{[]byte(topic), data})
}

// sendMessage sends [topic][timestamp][payload...][sequence].
func (p *Publisher) sendMessage(topic string, payload ...[]byte) error {
	now := p.clock.Now()
	parts := make([][]byte, 0, len(payload)+3)
	parts = append(parts, []byte(topic), EncodeTimestamp(now))
	parts = append(parts, payload...)
	return p.send(topic, now, parts)
}

// send appends the sequence number and hands the frame to the socket. The
// counter only advances when the transport accepted the whole frame.
func (p *Publisher) send(topic string, now time.Time, parts [][]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != stateReady {
		return ErrNotReady
	}

	seq := p.sequence
	parts = append(parts, EncodeUint32(seq))
	if err := p.socket.SendMultipart(parts); err != nil {
		p.metrics.MessageFailed(topic)
		p.log.Error("send failed", zap.String("topic", topic), zap.Uint32("sequence", seq), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", ErrSend, topic, err)
	}
	p.sequence++

	size := 0
	for _, part := range parts {
		size += len(part)
	}
	p.metrics.MessageSent(topic, size)
	p.log.Debug("sent message", zap.String("topic", topic), zap.Int("parts", len(parts)), zap.Uint32("sequence", seq))

	if p.recorder != nil {
		if now.IsZero() {
			now = p.clock.Now()
		}
		p.recorder.Record(Frame{Topic: topic, Sequence: seq, Time: now, Parts: parts})
	}
	return nil
}

// readBlock fetches the serialized body of the block at index.
func (p *Publisher) readBlock(index *chain.BlockIndex) ([]byte, error) {
	p.mu.Lock()
	ctx, ready := p.ctx, p.state == stateReady
	p.mu.Unlock()

	if !ready {
		return nil, ErrNotReady
	}
	if p.reader == nil {
		return nil, fmt.Errorf("%w: no block reader configured", ErrSourceRead)
	}

	data, err := p.reader.ReadRawBlock(ctx, index)
	if err != nil {
		p.log.Error("can't read block", zap.String("hash", index.Hash.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: block %s: %v", ErrSourceRead, index.Hash.String(), err)
	}
	return data, nil
}
