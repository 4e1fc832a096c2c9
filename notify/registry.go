package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// MetricsSink receives publish and socket lifecycle events.
type MetricsSink interface {
	MessageSent(topic string, size int)
	MessageFailed(topic string)
	SocketOpened(address string)
	SocketClosed(address string)
}

type nopMetrics struct{}

func (nopMetrics) MessageSent(string, int) {}
func (nopMetrics) MessageFailed(string)    {}
func (nopMetrics) SocketOpened(string)     {}
func (nopMetrics) SocketClosed(string)     {}

// endpoint is the live socket for one bind address and the publishers using it.
type endpoint struct {
	socket  Socket
	hwm     int
	members []*Publisher
}

// Registry shares one bound socket per address between publishers. A socket
// exists for an address iff at least one publisher is registered on it.
type Registry struct {
	factory SocketFactory
	log     *zap.Logger
	metrics MetricsSink

	mu        sync.Mutex
	endpoints map[string]*endpoint
}

// NewRegistry creates an empty registry. A nil factory selects ZeroMQ, a nil
// logger or metrics sink disables them.
func NewRegistry(factory SocketFactory, log *zap.Logger, metrics MetricsSink) *Registry {
	if factory == nil {
		factory = NewZMQSocket
	}
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Registry{
		factory:   factory,
		log:       log,
		metrics:   metrics,
		endpoints: make(map[string]*endpoint),
	}
}

// Register returns the socket bound to p's address, creating and binding it
// if p is the first publisher on that address. A reused socket keeps the
// high water mark of the publisher that created it.
func (r *Registry) Register(ctx context.Context, p *Publisher) (Socket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ep, ok := r.endpoints[p.address]; ok {
		r.log.Debug("reusing socket",
			zap.String("address", p.address),
			zap.String("type", p.typ),
			zap.Int("hwm", p.hwm),
			zap.Int("effective_hwm", ep.hwm))
		if !ep.contains(p) {
			ep.members = append(ep.members, p)
		}
		return ep.socket, nil
	}

	r.log.Debug("outbound message high water mark",
		zap.String("address", p.address),
		zap.String("type", p.typ),
		zap.Int("hwm", p.hwm))

	sock, err := r.open(ctx, p.address, p.hwm)
	if err != nil {
		r.log.Error("failed to open publish socket", zap.String("address", p.address), zap.Error(err))
		return nil, err
	}

	r.endpoints[p.address] = &endpoint{
		socket:  sock,
		hwm:     p.hwm,
		members: []*Publisher{p},
	}
	r.metrics.SocketOpened(p.address)
	return sock, nil
}

// open creates, configures and binds a socket. The socket is closed on any
// failure. The socket is shared by every later registrant, so it does not
// inherit the cancellation of the first one's ctx.
func (r *Registry) open(ctx context.Context, address string, hwm int) (Socket, error) {
	sock, err := r.factory(context.WithoutCancel(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: create socket: %v", ErrBind, err)
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"set high water mark", func() error { return sock.SetSendHWM(hwm) }},
		{"set keep-alive", func() error { return sock.SetKeepAlive(true) }},
		{"bind " + address, func() error { return sock.Bind(address) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			_ = sock.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrBind, step.name, err)
		}
	}
	return sock, nil
}

// Deregister removes p from its address. The last publisher to leave closes
// the socket without waiting for queued messages. Deregistering a publisher
// that is not registered is a no-op.
func (r *Registry) Deregister(p *Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.endpoints[p.address]
	if !ok || !ep.remove(p) {
		return
	}
	if len(ep.members) > 0 {
		return
	}

	r.log.Info("closing socket", zap.String("address", p.address))
	_ = ep.socket.SetLinger(0)
	if err := ep.socket.Close(); err != nil {
		r.log.Warn("socket close failed", zap.String("address", p.address), zap.Error(err))
	}
	delete(r.endpoints, p.address)
	r.metrics.SocketClosed(p.address)
}

// Count returns the number of publishers registered on address.
func (r *Registry) Count(address string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ep, ok := r.endpoints[address]; ok {
		return len(ep.members)
	}
	return 0
}

// HighWaterMark returns the high water mark the socket on address was
// configured with.
func (r *Registry) HighWaterMark(address string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ep, ok := r.endpoints[address]; ok {
		return ep.hwm, true
	}
	return 0, false
}

// Addresses returns the addresses with a live socket, sorted.
func (r *Registry) Addresses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	addrs := make([]string, 0, len(r.endpoints))
	for addr := range r.endpoints {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

func (ep *endpoint) contains(p *Publisher) bool {
	for _, m := range ep.members {
		if m == p {
			return true
		}
	}
	return false
}

func (ep *endpoint) remove(p *Publisher) bool {
	for i, m := range ep.members {
		if m == p {
			ep.members = append(ep.members[:i], ep.members[i+1:]...)
			return true
		}
	}
	return false
}
