package notify

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errFake = errors.New("fake transport error")

type fakeSocket struct {
	mu        sync.Mutex
	hwm       int
	keepAlive bool
	linger    time.Duration
	bound     string
	closed    bool
	frames    [][][]byte

	hwmErr  error
	bindErr error
	sendErr error
}

func (s *fakeSocket) SetSendHWM(hwm int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hwmErr != nil {
		return s.hwmErr
	}
	s.hwm = hwm
	return nil
}

func (s *fakeSocket) SetKeepAlive(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keepAlive = enabled
	return nil
}

func (s *fakeSocket) SetLinger(linger time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linger = linger
	return nil
}

func (s *fakeSocket) Bind(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bindErr != nil {
		return s.bindErr
	}
	s.bound = address
	return nil
}

func (s *fakeSocket) SendMultipart(parts [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	frame := make([][]byte, len(parts))
	for i, p := range parts {
		frame[i] = append([]byte(nil), p...)
	}
	s.frames = append(s.frames, frame)
	return nil
}

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSocket) setSendErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = err
}

func (s *fakeSocket) lastFrame() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *fakeSocket) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// fakeTransport hands out fakeSockets and remembers them.
type fakeTransport struct {
	mu        sync.Mutex
	sockets   []*fakeSocket
	contexts  []context.Context
	configure func(*fakeSocket)
	createErr error
}

func (f *fakeTransport) factory(ctx context.Context) (Socket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.contexts = append(f.contexts, ctx)
	s := &fakeSocket{linger: -1}
	if f.configure != nil {
		f.configure(s)
	}
	f.sockets = append(f.sockets, s)
	return s, nil
}

func (f *fakeTransport) created() []*fakeSocket {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeSocket(nil), f.sockets...)
}
