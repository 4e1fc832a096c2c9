// Command hierachain-notify hosts the publish notifiers configured by the
// ZMQ_PUB* environment: it binds their sockets, serves metrics and the
// active notifier list, and optionally journals every published frame.
//
// The daemon has no event source of its own. Frames are only published when
// an embedding blockchain engine drives the dispatch.Dispatcher (or
// dispatch.Async) hooks; run standalone it only binds and reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/VanDung-dev/HieraChain-Notify/api"
	"github.com/VanDung-dev/HieraChain-Notify/config"
	"github.com/VanDung-dev/HieraChain-Notify/dispatch"
	"github.com/VanDung-dev/HieraChain-Notify/journal"
	"github.com/VanDung-dev/HieraChain-Notify/notify"
	"github.com/VanDung-dev/HieraChain-Notify/store"
)

// Version information
const (
	Version = "0.1.0"
	Name    = "HieraChain-Notify"
)

func main() {
	envFile := flag.String("env", ".env", "environment file with ZMQ_PUB* settings")
	metricsAddr := flag.String("metrics", "", "metrics listen address (overrides NOTIFY_METRICS_ADDR)")
	debug := flag.Bool("debug", false, "enable debug logging")
	replay := flag.String("replay", "", "print the frames of a journal file and exit")
	flag.Parse()

	if *replay != "" {
		if err := printJournal(*replay); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *metricsAddr != "" {
		cfg.MetricsAddress = *metricsAddr
	}
	cfg.Debug = cfg.Debug || *debug

	log, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("notifier daemon failed", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg config.Config, log *zap.Logger) error {
	log.Info("starting", zap.String("name", Name), zap.String("version", Version))

	blocks, err := store.Open(cfg.BlockStoreURL)
	if err != nil {
		return err
	}

	metrics := api.NewMetrics("hierachain_notify", prometheus.DefaultRegisterer)
	registry := notify.NewRegistry(notify.NewZMQSocket, log.Named("registry"), metrics)

	opts := []notify.Option{
		notify.WithLogger(log.Named("notify")),
		notify.WithMetrics(metrics),
		notify.WithBlockReader(blocks),
	}
	var rec *journal.Recorder
	if cfg.JournalPath != "" {
		rec, err = journal.Create(cfg.JournalPath, journal.WithLogger(log.Named("journal")))
		if err != nil {
			return err
		}
		opts = append(opts, notify.WithRecorder(rec))
	}

	d, err := dispatch.FromConfig(cfg, registry, log.Named("dispatch"), opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Initialize(ctx); err != nil {
		log.Warn("some notifiers failed to initialize", zap.Error(err))
	}
	active := d.ActiveNotifiers()
	metrics.UpdateActiveNotifiers(len(active))
	if len(active) == 0 {
		log.Warn("no notifiers active, set ZMQ_PUB* to enable publishing")
	}

	var server *api.MetricsServer
	if cfg.MetricsAddress != "" {
		server = api.NewMetricsServer(cfg.MetricsAddress, prometheus.DefaultGatherer, func() any {
			return d.ActiveNotifiers()
		})
		server.StartAsync()
		log.Info("metrics server started", zap.String("address", cfg.MetricsAddress))
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	d.Shutdown()
	metrics.UpdateActiveNotifiers(0)

	if rec != nil {
		if err := rec.Close(); err != nil {
			log.Error("failed to write journal", zap.String("path", cfg.JournalPath), zap.Error(err))
		}
	}
	if server != nil {
		if err := server.Stop(); err != nil {
			log.Error("failed to stop metrics server", zap.Error(err))
		}
	}
	if c, ok := blocks.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			log.Error("failed to close block store", zap.Error(err))
		}
	}
	log.Info("stopped")
	return nil
}

func printJournal(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// A journal cut short by a crash still yields its complete batches.
	frames, err := journal.DecodeFrom(f)
	for _, fr := range frames {
		fmt.Printf("%s %-20s seq=%-10d parts=%d\n",
			fr.Time.UTC().Format("2006-01-02T15:04:05.000Z"), fr.Topic, fr.Sequence, len(fr.Parts))
	}
	return err
}
