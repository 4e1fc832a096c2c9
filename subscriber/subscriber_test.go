package subscriber

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/require"

	"github.com/VanDung-dev/HieraChain-Notify/chain"
	"github.com/VanDung-dev/HieraChain-Notify/notify"
)

func TestParseFrame(t *testing.T) {
	msg, err := ParseFrame([][]byte{[]byte("hashtx"), {0xaa}, {7, 0, 0, 0}})
	require.NoError(t, err)
	require.Equal(t, "hashtx", msg.Topic)
	require.Equal(t, [][]byte{{0xaa}}, msg.Body)
	require.Equal(t, uint32(7), msg.Sequence)

	_, err = ParseFrame([][]byte{[]byte("hashtx")})
	require.ErrorIs(t, err, ErrShortFrame)

	_, err = ParseFrame([][]byte{[]byte("hashtx"), {1, 2}})
	require.ErrorIs(t, err, ErrShortFrame)
}

func TestDecodeHashReversesWireOrder(t *testing.T) {
	idx := chain.NewBlockIndex(chain.BlockHeader{Version: 2, Nonce: 5}, 10)
	h, err := DecodeHash(notify.EncodeHash(idx.Hash))
	require.NoError(t, err)
	require.Equal(t, idx.Hash, h)

	_, err = DecodeHash([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrMalformedBody)
}

// recvSocket replays frames sent to it as a Receiver.
type recvSocket struct {
	frames [][][]byte
}

func (s *recvSocket) SetSendHWM(int) error          { return nil }
func (s *recvSocket) SetKeepAlive(bool) error       { return nil }
func (s *recvSocket) SetLinger(time.Duration) error { return nil }
func (s *recvSocket) Bind(string) error             { return nil }
func (s *recvSocket) Close() error                  { return nil }
func (s *recvSocket) SendMultipart(p [][]byte) error {
	s.frames = append(s.frames, p)
	return nil
}

func (s *recvSocket) Recv() ([][]byte, error) {
	if len(s.frames) == 0 {
		return nil, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func newSequenceNotifier(t *testing.T, sock *recvSocket) *notify.SequenceNotifier {
	t.Helper()
	reg := notify.NewRegistry(func(context.Context) (notify.Socket, error) { return sock, nil }, nil, nil)
	n := notify.NewSequenceNotifier(reg, "tcp://127.0.0.1:28332", 10)
	require.NoError(t, n.Initialize(context.Background()))
	t.Cleanup(n.Shutdown)
	return n
}

func TestDecodeSequenceFromNotifier(t *testing.T) {
	sock := &recvSocket{}
	n := newSequenceNotifier(t, sock)

	idx := chain.NewBlockIndex(chain.BlockHeader{Version: 1}, 3)
	tx := transaction.NewTransaction()
	require.NoError(t, n.NotifyBlockConnect(idx))
	require.NoError(t, n.NotifyTransactionAcceptance(tx, 42))

	msg, err := ParseFrame(sock.frames[0])
	require.NoError(t, err)
	ev, err := DecodeSequence(msg.Body[0])
	require.NoError(t, err)
	require.Equal(t, idx.Hash, ev.Hash)
	require.Equal(t, notify.LabelBlockConnect, ev.Label)
	require.False(t, ev.HasMempoolSeq)

	msg, err = ParseFrame(sock.frames[1])
	require.NoError(t, err)
	require.Equal(t, uint32(1), msg.Sequence)
	ev, err = DecodeSequence(msg.Body[0])
	require.NoError(t, err)
	require.Equal(t, *tx.TxID(), ev.Hash)
	require.Equal(t, notify.LabelTxAcceptance, ev.Label)
	require.True(t, ev.HasMempoolSeq)
	require.Equal(t, uint64(42), ev.MempoolSequence)
}

func TestDecodeSequenceRejectsBadBodies(t *testing.T) {
	_, err := DecodeSequence(make([]byte, 10))
	require.ErrorIs(t, err, ErrMalformedBody)

	body := append(make([]byte, 32), 'X')
	_, err = DecodeSequence(body)
	require.ErrorIs(t, err, ErrMalformedBody)

	body = append(make([]byte, 32), 'A')
	_, err = DecodeSequence(body)
	require.ErrorIs(t, err, ErrMalformedBody)

	body = append(append(make([]byte, 32), 'C'), make([]byte, 8)...)
	_, err = DecodeSequence(body)
	require.ErrorIs(t, err, ErrMalformedBody)
}

func observeGap(g *GapTracker, topic string, seq uint32) uint32 {
	gap, _ := g.Observe(Message{Topic: topic, Sequence: seq})
	return gap
}

func TestGapTracker(t *testing.T) {
	g := NewGapTracker()
	require.Zero(t, observeGap(g, "a", 5))
	require.Zero(t, observeGap(g, "a", 6))
	require.Equal(t, uint32(3), observeGap(g, "a", 10))
	require.Zero(t, observeGap(g, "b", 0))

	// Wraps at 2^32.
	require.Zero(t, observeGap(g, "c", 0xffffffff))
	require.Zero(t, observeGap(g, "c", 0))
	require.Equal(t, uint32(1), observeGap(g, "c", 2))

	require.Equal(t, map[string]uint64{"a": 3, "b": 0, "c": 1}, g.Missed())
	require.Empty(t, g.Resets())
}

func TestGapTrackerPublisherRestart(t *testing.T) {
	g := NewGapTracker()
	for seq := uint32(0); seq < 100; seq++ {
		require.Zero(t, observeGap(g, "hashtx", seq))
	}

	gap, reset := g.Observe(Message{Topic: "hashtx", Sequence: 0})
	require.True(t, reset)
	require.Zero(t, gap)

	// Resynced on the restarted counter.
	gap, reset = g.Observe(Message{Topic: "hashtx", Sequence: 1})
	require.False(t, reset)
	require.Zero(t, gap)

	require.Equal(t, uint64(0), g.Missed()["hashtx"])
	require.Equal(t, uint64(1), g.Resets()["hashtx"])
}

func TestGapTrackerDuplicate(t *testing.T) {
	g := NewGapTracker()
	require.Zero(t, observeGap(g, "sequence", 10))
	require.Zero(t, observeGap(g, "sequence", 11))

	gap, reset := g.Observe(Message{Topic: "sequence", Sequence: 11})
	require.True(t, reset)
	require.Zero(t, gap)
	require.Zero(t, observeGap(g, "sequence", 12))

	require.Equal(t, uint64(0), g.Missed()["sequence"])
	require.Equal(t, uint64(1), g.Resets()["sequence"])
}

func TestGapTrackerLargeForwardGap(t *testing.T) {
	g := NewGapTracker()
	require.Zero(t, observeGap(g, "a", 0))
	gap, reset := g.Observe(Message{Topic: "a", Sequence: resetThreshold})
	require.False(t, reset)
	require.Equal(t, uint32(resetThreshold-1), gap)
	gap, reset = g.Observe(Message{Topic: "a", Sequence: resetThreshold})
	require.True(t, reset)
	require.Zero(t, gap)
}

func TestSubscriberRun(t *testing.T) {
	sock := &recvSocket{}
	n := newSequenceNotifier(t, sock)
	idx := chain.NewBlockIndex(chain.BlockHeader{}, 1)
	for i := 0; i < 3; i++ {
		require.NoError(t, n.NotifyBlockConnect(idx))
	}
	// Drop the second frame and add garbage.
	sock.frames = [][][]byte{sock.frames[0], {[]byte("junk")}, sock.frames[2]}

	s := New(sock, nil)
	var seqs, gaps []uint32
	err := s.Run(context.Background(), func(msg Message, gap uint32) error {
		seqs = append(seqs, msg.Sequence)
		gaps = append(gaps, gap)
		return nil
	})
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, []uint32{0, 2}, seqs)
	require.Equal(t, []uint32{0, 1}, gaps)
	require.Equal(t, uint64(1), s.Gaps().Missed()[notify.TopicSequence])
}

func TestSubscriberStop(t *testing.T) {
	sock := &recvSocket{frames: [][][]byte{{[]byte("hashtx"), {1}, {0, 0, 0, 0}}}}
	s := New(sock, nil)
	err := s.Run(context.Background(), func(Message, uint32) error { return ErrStop })
	require.NoError(t, err)

	boom := errors.New("boom")
	sock.frames = [][][]byte{{[]byte("hashtx"), {1}, {1, 0, 0, 0}}}
	require.ErrorIs(t, s.Run(context.Background(), func(Message, uint32) error { return boom }), boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Run(ctx, nil), context.Canceled)
}

func FuzzParseFrame(f *testing.F) {
	f.Add([]byte("sequence"), []byte{1, 2, 3}, []byte{0, 0, 0, 0})
	f.Fuzz(func(t *testing.T, topic, body, seq []byte) {
		msg, err := ParseFrame([][]byte{topic, body, seq})
		if len(seq) != 4 {
			require.Error(t, err)
			return
		}
		require.NoError(t, err)
		require.Equal(t, string(topic), msg.Topic)
		_, _ = DecodeSequence(body)
	})
}
