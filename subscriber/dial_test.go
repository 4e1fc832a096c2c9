package subscriber

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/require"

	"github.com/VanDung-dev/HieraChain-Notify/chain"
	"github.com/VanDung-dev/HieraChain-Notify/notify"
)

func freeTCPAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return fmt.Sprintf("tcp://127.0.0.1:%d", port)
}

func TestDialReceivesPublishedFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("opens TCP sockets")
	}
	addr := freeTCPAddr(t)

	reg := notify.NewRegistry(nil, nil, nil)
	seqNotifier := notify.NewSequenceNotifier(reg, addr, 100)
	hashTx := notify.NewHashTxNotifier(reg, addr, 100)
	require.NoError(t, seqNotifier.Initialize(context.Background()))
	require.NoError(t, hashTx.Initialize(context.Background()))
	defer seqNotifier.Shutdown()
	defer hashTx.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recv, err := Dial(ctx, addr, notify.TopicSequence)
	require.NoError(t, err)
	s := New(recv, nil)
	defer s.Close()

	type received struct {
		msg Message
		gap uint32
	}
	got := make(chan received, 16)
	go func() {
		_ = s.Run(ctx, func(msg Message, gap uint32) error {
			got <- received{msg, gap}
			return ErrStop
		})
	}()

	tx := transaction.NewTransaction()
	idx := chain.NewBlockIndex(chain.BlockHeader{Version: 1}, 1)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()

	var r received
	for r.msg.Topic == "" {
		select {
		case r = <-got:
		case <-tick.C:
			// hashtx is filtered out by the subscription.
			require.NoError(t, hashTx.NotifyTransaction(tx))
			require.NoError(t, seqNotifier.NotifyBlockConnect(idx))
		case <-ctx.Done():
			t.Fatal("no frame received")
		}
	}

	require.Equal(t, notify.TopicSequence, r.msg.Topic)
	require.Zero(t, r.gap)
	require.Len(t, r.msg.Body, 1)
	ev, err := DecodeSequence(r.msg.Body[0])
	require.NoError(t, err)
	require.Equal(t, idx.Hash, ev.Hash)
	require.Equal(t, notify.LabelBlockConnect, ev.Label)
	require.Less(t, r.msg.Sequence, seqNotifier.Sequence())
}

func TestDialInvalidAddress(t *testing.T) {
	_, err := Dial(context.Background(), "nonsense")
	require.Error(t, err)
}
