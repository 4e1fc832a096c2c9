package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-zeromq/zmq4"
)

// Socket is a bound publish-mode transport endpoint.
type Socket interface {
	// SetSendHWM sets the outbound queue depth.
	SetSendHWM(hwm int) error
	// SetKeepAlive toggles TCP keep-alive on accepted connections. The zmq4
	// adapter accepts and ignores it: zmq4 has no such option and its
	// listener uses the runtime's default keep-alive.
	SetKeepAlive(enabled bool) error
	// SetLinger sets how long Close waits to flush queued messages. The zmq4
	// adapter accepts and ignores it: zmq4 always drops queued messages on
	// Close, which is a zero linger.
	SetLinger(linger time.Duration) error
	// Bind starts listening on address.
	Bind(address string) error
	// SendMultipart sends parts as one message. Every part but the last is
	// flagged as more-to-follow.
	SendMultipart(parts [][]byte) error
	Close() error
}

// SocketFactory creates an unbound publish socket. The socket lives until
// Close; ctx is never cancelled before that.
type SocketFactory func(ctx context.Context) (Socket, error)

// zmqSocket adapts a zmq4 PUB socket.
type zmqSocket struct {
	sck zmq4.Socket
}

// NewZMQSocket creates a ZeroMQ PUB socket. It is the default SocketFactory.
func NewZMQSocket(ctx context.Context) (Socket, error) {
	return &zmqSocket{sck: zmq4.NewPub(ctx)}, nil
}

func (s *zmqSocket) SetSendHWM(hwm int) error {
	if hwm <= 0 {
		return fmt.Errorf("invalid high water mark %d", hwm)
	}
	return s.sck.SetOption(zmq4.OptionHWM, hwm)
}

func (s *zmqSocket) SetKeepAlive(bool) error { return nil }

func (s *zmqSocket) SetLinger(time.Duration) error { return nil }

func (s *zmqSocket) Bind(address string) error {
	return s.sck.Listen(address)
}

func (s *zmqSocket) SendMultipart(parts [][]byte) error {
	return s.sck.SendMulti(zmq4.NewMsgFrom(parts...))
}

func (s *zmqSocket) Close() error {
	return s.sck.Close()
}
