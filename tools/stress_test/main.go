package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/bsv-blockchain/go-sdk/transaction"
	"go.uber.org/zap"

	"github.com/VanDung-dev/HieraChain-Notify/chain"
	"github.com/VanDung-dev/HieraChain-Notify/dispatch"
	"github.com/VanDung-dev/HieraChain-Notify/notify"
	"github.com/VanDung-dev/HieraChain-Notify/store"
	"github.com/VanDung-dev/HieraChain-Notify/subscriber"
)

// StressTestConfig holds configuration for the stress test.
type StressTestConfig struct {
	Address     string
	HWM         int
	QueueSize   int
	TxPerBlock  int
	Duration    time.Duration
	Settle      time.Duration
	ReportFile  string
	SubscribeTo string
}

// StressTestResult holds the results of a stress test.
type StressTestResult struct {
	EventsQueued   int64
	EventsDropped  int64
	FramesReceived int64
	FramesMissed   uint64
	PublishFailed  int64
	TotalDuration  time.Duration
	EventsPerSec   float64
	FramesPerSec   float64
	MissedByTopic  map[string]uint64
}

func main() {
	config := parseFlags()

	fmt.Println("=== HieraChain Notify Stress Test ===")
	fmt.Printf("Endpoint: %s\n", config.Address)
	fmt.Printf("HWM: %d\n", config.HWM)
	fmt.Printf("Duration: %v\n", config.Duration)
	fmt.Println()

	result, err := runStressTest(config)
	if err != nil {
		log.Fatalf("Stress test failed: %v", err)
	}

	printResults(result)

	if config.ReportFile != "" {
		saveReport(config, result)
	}
}

func parseFlags() StressTestConfig {
	config := StressTestConfig{}

	flag.StringVar(&config.Address, "addr", "tcp://127.0.0.1:28399", "Publish endpoint")
	flag.IntVar(&config.HWM, "hwm", notify.DefaultHighWaterMark, "Outbound high water mark")
	flag.IntVar(&config.QueueSize, "q", dispatch.DefaultQueueSize, "Event queue depth")
	flag.IntVar(&config.TxPerBlock, "txs", 100, "Mempool transactions per block")
	flag.DurationVar(&config.Duration, "d", 10*time.Second, "Duration of test")
	flag.DurationVar(&config.Settle, "settle", 500*time.Millisecond, "Subscriber connect delay")
	flag.StringVar(&config.SubscribeTo, "topic", "", "Only subscribe to this topic")
	flag.StringVar(&config.ReportFile, "o", "", "Output report file (JSON)")

	flag.Parse()

	return config
}

func runStressTest(config StressTestConfig) (StressTestResult, error) {
	logger := zap.NewNop()

	blocks := store.NewMemoryBlockStore()
	registry := notify.NewRegistry(notify.NewZMQSocket, logger, nil)
	notifiers := make([]notify.Notifier, 0, len(notify.Types()))
	for _, typ := range notify.Types() {
		n, err := notify.New(typ, registry, config.Address, config.HWM, notify.WithBlockReader(blocks))
		if err != nil {
			return StressTestResult{}, err
		}
		notifiers = append(notifiers, n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := dispatch.New(logger, notifiers...)
	if err := d.Initialize(ctx); err != nil {
		return StressTestResult{}, err
	}
	async := dispatch.NewAsync(d, config.QueueSize)

	var topics []string
	if config.SubscribeTo != "" {
		topics = append(topics, config.SubscribeTo)
	}
	recv, err := subscriber.Dial(ctx, config.Address, topics...)
	if err != nil {
		async.Shutdown()
		return StressTestResult{}, err
	}
	sub := subscriber.New(recv, logger)

	var received int64
	go func() {
		_ = sub.Run(ctx, func(subscriber.Message, uint32) error {
			atomic.AddInt64(&received, 1)
			return nil
		})
	}()

	// Subscriptions propagate asynchronously.
	time.Sleep(config.Settle)

	var queued, dropped int64
	submit := func(err error) {
		if err != nil {
			atomic.AddInt64(&dropped, 1)
			return
		}
		atomic.AddInt64(&queued, 1)
	}

	startTime := time.Now()
	deadline := startTime.Add(config.Duration)
	var prev *chain.BlockIndex
	var mempoolSeq uint64
	for height := int32(1); time.Now().Before(deadline); height++ {
		block := &chain.Block{Header: chain.BlockHeader{Version: 1, Timestamp: uint32(height), Nonce: uint32(height)}}
		if prev != nil {
			block.Header.PrevBlock = prev.Hash
		}

		for i := 0; i < config.TxPerBlock; i++ {
			tx := transaction.NewTransaction()
			tx.LockTime = uint32(height)<<16 | uint32(i)
			mempoolSeq++
			submit(async.TransactionAddedToMempool(tx, int64(i), mempoolSeq))
			block.Transactions = append(block.Transactions, tx)
		}

		index := chain.NewBlockIndex(block.Header, height)
		if err := blocks.Put(ctx, block); err != nil {
			return StressTestResult{}, err
		}
		submit(async.HeaderAdded(index))
		submit(async.BlockConnected(block, index))
		for _, tx := range block.Transactions {
			mempoolSeq++
			submit(async.TransactionRemovedFromMempool(tx, chain.ReasonBlock, mempoolSeq))
			submit(async.TransactionConfirmed(tx, index))
		}
		submit(async.UpdatedBlockTip(index, prev, false))
		prev = index
	}

	syncCtx, syncCancel := context.WithTimeout(ctx, 30*time.Second)
	defer syncCancel()
	if err := async.Sync(syncCtx); err != nil {
		log.Printf("Queue did not drain: %v", err)
	}
	time.Sleep(config.Settle)
	duration := time.Since(startTime)

	stats := async.Stats()
	async.Shutdown()
	cancel()
	sub.Close()

	missedByTopic := sub.Gaps().Missed()
	var missed uint64
	for _, n := range missedByTopic {
		missed += n
	}

	total := atomic.LoadInt64(&queued)
	frames := atomic.LoadInt64(&received)
	return StressTestResult{
		EventsQueued:   total,
		EventsDropped:  atomic.LoadInt64(&dropped),
		FramesReceived: frames,
		FramesMissed:   missed,
		PublishFailed:  stats.Failed,
		TotalDuration:  duration,
		EventsPerSec:   float64(total) / duration.Seconds(),
		FramesPerSec:   float64(frames) / duration.Seconds(),
		MissedByTopic:  missedByTopic,
	}, nil
}

func printResults(result StressTestResult) {
	fmt.Println("=== Results ===")
	fmt.Printf("Duration:        %v\n", result.TotalDuration.Round(time.Millisecond))
	fmt.Printf("Events queued:   %d\n", result.EventsQueued)
	fmt.Printf("Events dropped:  %d\n", result.EventsDropped)
	fmt.Printf("Publish failed:  %d\n", result.PublishFailed)
	fmt.Printf("Events/sec:      %.2f\n", result.EventsPerSec)
	fmt.Printf("Frames received: %d\n", result.FramesReceived)
	fmt.Printf("Frames/sec:      %.2f\n", result.FramesPerSec)
	fmt.Printf("Frames missed:   %d\n", result.FramesMissed)
	for topic, n := range result.MissedByTopic {
		if n > 0 {
			fmt.Printf("  %-20s %d\n", topic, n)
		}
	}
}

func saveReport(config StressTestConfig, result StressTestResult) {
	report := map[string]interface{}{
		"config": map[string]interface{}{
			"address":       config.Address,
			"hwm":           config.HWM,
			"queue_size":    config.QueueSize,
			"txs_per_block": config.TxPerBlock,
			"duration":      config.Duration.String(),
		},
		"results": map[string]interface{}{
			"events_queued":   result.EventsQueued,
			"events_dropped":  result.EventsDropped,
			"publish_failed":  result.PublishFailed,
			"events_per_sec":  result.EventsPerSec,
			"frames_received": result.FramesReceived,
			"frames_per_sec":  result.FramesPerSec,
			"frames_missed":   result.FramesMissed,
			"missed_by_topic": result.MissedByTopic,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}

	data, _ := json.MarshalIndent(report, "", "  ")
	if err := os.WriteFile(config.ReportFile, data, 0644); err != nil {
		log.Printf("Failed to write report: %v", err)
	} else {
		fmt.Printf("Report saved to: %s\n", config.ReportFile)
	}
}
