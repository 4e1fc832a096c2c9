package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueRunsInOrder(t *testing.T) {
	q := NewQueue(nil, 100)
	defer q.Shutdown()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 50; i++ {
		i := i
		require.NoError(t, q.Submit("append", func() error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}))
	}
	require.NoError(t, q.Sync(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 50)
	for i, v := range got {
		require.Equal(t, i, v)
	}
	require.Equal(t, int64(50), q.Stats().Completed)
}

func TestQueueCountsFailuresAndPanics(t *testing.T) {
	q := NewQueue(nil, 10)
	defer q.Shutdown()

	require.NoError(t, q.Submit("fail", func() error { return errors.New("boom") }))
	require.NoError(t, q.Submit("panic", func() error { panic("bad notifier") }))
	require.NoError(t, q.Submit("ok", func() error { return nil }))
	require.NoError(t, q.Sync(context.Background()))

	stats := q.Stats()
	require.Equal(t, int64(2), stats.Failed)
	require.Equal(t, int64(1), stats.Completed)
	require.Equal(t, 0, stats.Pending)
}

func TestQueueFull(t *testing.T) {
	q := NewQueue(nil, 1)
	defer q.Shutdown()

	block := make(chan struct{})
	require.NoError(t, q.Submit("block", func() error { <-block; return nil }))

	// Fill the buffer behind the blocked event until it overflows.
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = q.Submit("fill", func() error { return nil })
	}
	require.ErrorIs(t, err, ErrQueueFull)
	close(block)
}

func TestQueueShutdownDrains(t *testing.T) {
	q := NewQueue(nil, 10)

	done := make(chan struct{})
	require.NoError(t, q.Submit("slow", func() error {
		time.Sleep(10 * time.Millisecond)
		close(done)
		return nil
	}))
	q.Shutdown()

	select {
	case <-done:
	default:
		t.Fatal("queued event did not run before shutdown returned")
	}
	require.False(t, q.IsRunning())
	require.ErrorIs(t, q.Submit("late", func() error { return nil }), ErrQueueClosed)
	require.ErrorIs(t, q.Sync(context.Background()), ErrQueueClosed)
	q.Shutdown()
}

func TestAsyncPublishesInOrder(t *testing.T) {
	blk, idx := testBlock(5)
	d, sock, _ := newDispatcher(t, mapReader{idx.Hash: blk.Bytes()})
	a := NewAsync(d, 0)

	require.NoError(t, a.BlockConnected(blk, idx))
	require.NoError(t, a.UpdatedBlockTip(idx, nil, false))
	require.NoError(t, a.HeaderAdded(idx))
	require.NoError(t, a.Sync(context.Background()))

	topics := sock.topics()
	require.NotEmpty(t, topics)
	require.Equal(t, "chainheaderadded", topics[len(topics)-1])
	require.Equal(t, int64(3), a.Stats().Completed)

	a.Shutdown()
	require.Empty(t, a.Dispatcher().ActiveNotifiers())
}
