package journal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/VanDung-dev/HieraChain-Notify/chain"
	"github.com/VanDung-dev/HieraChain-Notify/notify"
)

var testTime = time.UnixMilli(1700000000123)

func testFrame(seq uint32) notify.Frame {
	return notify.Frame{
		Topic:    "hashtx",
		Sequence: seq,
		Time:     testTime.Add(time.Duration(seq) * time.Millisecond),
		Parts:    [][]byte{[]byte("hashtx"), {byte(seq), 0xee}, notify.EncodeUint32(seq)},
	}
}

// syncBuffer lets the test read what the flush goroutine wrote.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

func TestFrameSchema(t *testing.T) {
	schema := FrameSchema()
	require.Equal(t, 4, schema.NumFields())
	for i, name := range []string{"topic", "sequence", "timestamp_ms", "parts"} {
		require.Equal(t, name, schema.Field(i).Name)
	}
}

func TestRecordAndDecode(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(&buf, WithFlushInterval(0))
	in := []notify.Frame{
		testFrame(0),
		{Topic: "sequence", Sequence: 7, Time: testTime, Parts: [][]byte{[]byte("sequence"), {}, {7, 0, 0, 0}}},
	}
	for _, f := range in {
		r.Record(f)
	}
	require.Equal(t, 2, r.Buffered())
	require.NoError(t, r.Close())
	require.Equal(t, int64(2), r.Written())

	out, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, out, 2)
	for i := range in {
		require.Equal(t, in[i].Topic, out[i].Topic)
		require.Equal(t, in[i].Sequence, out[i].Sequence)
		require.True(t, in[i].Time.Equal(out[i].Time))
		require.Len(t, out[i].Parts, len(in[i].Parts))
		for j := range in[i].Parts {
			require.Equal(t, len(in[i].Parts[j]), len(out[i].Parts[j]))
			if len(in[i].Parts[j]) > 0 {
				require.Equal(t, in[i].Parts[j], out[i].Parts[j])
			}
		}
	}
}

func TestBufferedFramesAreCapped(t *testing.T) {
	buf := &syncBuffer{}
	r := NewRecorder(buf, WithBatchSize(4), WithFlushInterval(0))
	defer r.Close()

	for seq := uint32(0); seq < 10; seq++ {
		r.Record(testFrame(seq))
		require.Less(t, r.Buffered(), 4)
	}
	require.Equal(t, 2, r.Buffered())
	require.Equal(t, int64(8), r.Written())

	// Written batches are readable before the stream is closed.
	out, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, out, 8)
	for i, f := range out {
		require.Equal(t, uint32(i), f.Sequence)
	}
}

func TestPeriodicFlush(t *testing.T) {
	mock := clock.NewMock()
	buf := &syncBuffer{}
	r := NewRecorder(buf, WithBatchSize(1000), WithFlushInterval(time.Second), WithClock(mock))
	defer r.Close()

	r.Record(testFrame(0))
	r.Record(testFrame(1))
	require.Equal(t, 2, r.Buffered())

	mock.Add(time.Second)
	require.Eventually(t, func() bool { return r.Buffered() == 0 }, time.Second, 5*time.Millisecond)
	require.Equal(t, int64(2), r.Written())

	out, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, out, 2)
}

func TestCloseIsFinal(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(&buf, WithFlushInterval(0))
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	r.Record(testFrame(0))
	require.Equal(t, 0, r.Buffered())
	require.ErrorIs(t, r.Flush(), ErrClosed)

	out, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("not arrow"))
	require.Error(t, err)
}

func TestCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.arrow")
	r, err := Create(path, WithBatchSize(3), WithFlushInterval(0))
	require.NoError(t, err)

	for seq := uint32(0); seq < 5; seq++ {
		r.Record(testFrame(seq))
	}

	// The first batch is on disk while the recorder is open.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, out, 3)

	require.NoError(t, r.Close())
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	out, err = DecodeFrom(f)
	require.NoError(t, err)
	require.Len(t, out, 5)
}

func TestCreateBadPath(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "journal.arrow"))
	require.Error(t, err)
}

type nopSocket struct{}

func (nopSocket) SetSendHWM(int) error          { return nil }
func (nopSocket) SetKeepAlive(bool) error       { return nil }
func (nopSocket) SetLinger(time.Duration) error { return nil }
func (nopSocket) Bind(string) error             { return nil }
func (nopSocket) SendMultipart([][]byte) error  { return nil }
func (nopSocket) Close() error                  { return nil }

func TestRecordsPublishedFrames(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf, WithFlushInterval(0))
	mock := clock.NewMock()
	mock.Set(testTime)

	reg := notify.NewRegistry(func(context.Context) (notify.Socket, error) { return nopSocket{}, nil }, nil, nil)
	n := notify.NewHashBlockNotifier(reg, "tcp://127.0.0.1:28332", 10,
		notify.WithRecorder(rec), notify.WithClock(mock))
	require.NoError(t, n.Initialize(context.Background()))
	defer n.Shutdown()

	idx := chain.NewBlockIndex(chain.BlockHeader{Version: 1}, 1)
	require.NoError(t, n.NotifyBlock(idx))
	require.NoError(t, n.NotifyBlock(idx))
	require.NoError(t, rec.Close())

	out, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, out, 2)

	for i, f := range out {
		require.Equal(t, notify.TopicHashBlock, f.Topic, "frame %d", i)
		require.Equal(t, uint32(i), f.Sequence)
		require.Equal(t, notify.EncodeHash(idx.Hash), f.Parts[1])
		require.Equal(t, notify.EncodeUint32(uint32(i)), f.Parts[2])
		require.Equal(t, testTime.UnixMilli(), f.Time.UnixMilli())
	}
}
