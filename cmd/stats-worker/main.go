package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"openlibrary-explorer/internal/config"
	ekafka "openlibrary-explorer/internal/kafka"
	"openlibrary-explorer/internal/logger"
	"openlibrary-explorer/internal/metrics"
	"openlibrary-explorer/internal/models"
	"openlibrary-explorer/internal/store"
)

const fetchRetryDelay = 500 * time.Millisecond

type worker struct {
	reader        ekafka.MessageReader
	stats         store.StatsStore
	dedupeTTL     time.Duration
	recordTimeout time.Duration // per-event deadline so one stuck write can't hold a slot forever
	commitCh      chan<- kafka.Message
	sem           chan struct{}
	wg            *sync.WaitGroup
}

func newWorker(
	reader ekafka.MessageReader,
	stats store.StatsStore,
	dedupeTTL time.Duration,
	concurrency int,
	recordTimeout time.Duration,
	commitCh chan<- kafka.Message,
	wg *sync.WaitGroup,
) *worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if recordTimeout <= 0 {
		recordTimeout = 5 * time.Second
	}
	return &worker{
		reader:        reader,
		stats:         stats,
		dedupeTTL:     dedupeTTL,
		recordTimeout: recordTimeout,
		commitCh:      commitCh,
		sem:           make(chan struct{}, concurrency),
		wg:            wg,
	}
}

func main() {
	if err := run(); err != nil {
		logrus.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		return err
	}
	if cfg.Kafka.Broker == "" {
		return errors.New("KAFKA_BROKER is required for the stats worker")
	}

	reader := ekafka.NewReader(cfg.Kafka.Broker, cfg.Kafka.Topic, cfg.Stats.GroupID)
	defer func() {
		if err := reader.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close reader")
		}
	}()

	stats := store.NewRedisStatsStore(cfg.Cache.RedisAddr, cfg.Stats.Prefix)
	defer func() {
		if err := stats.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close redis client")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Stats.MetricsAddr != "" {
		startMetricsServer(ctx, cfg.Stats.MetricsAddr)
	}

	logrus.WithFields(logrus.Fields{
		"topic":       cfg.Kafka.Topic,
		"group":       cfg.Stats.GroupID,
		"broker":      cfg.Kafka.Broker,
		"concurrency": cfg.Stats.Concurrency,
	}).Info("stats worker consuming")

	consume(ctx, reader, stats, cfg.Stats)
	return nil
}

// consume runs the fetch loop until ctx is cancelled, waits for in-flight records, then closes
// the commit channel and waits for the coordinator to flush.
func consume(ctx context.Context, reader ekafka.MessageReader, stats store.StatsStore, cfg config.StatsConfig) {
	commitCh := make(chan kafka.Message, cfg.Concurrency*2)
	coordinator := newCommitCoordinator(reader, commitCh)
	var coordWg sync.WaitGroup
	coordWg.Add(1)
	go coordinator.run(ctx, &coordWg)

	var wg sync.WaitGroup
	w := newWorker(reader, stats, cfg.DedupeTTL, cfg.Concurrency, cfg.RecordTimeout, commitCh, &wg)
	w.run(ctx)
	wg.Wait()
	close(commitCh)
	coordWg.Wait()
}

// run consumes search events, dispatches them to recording goroutines (bounded by the
// semaphore), and routes commits through the coordinator.
func (w *worker) run(ctx context.Context) {
	for {
		msg, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logrus.WithError(err).Warn("fetch error")
			select {
			case <-ctx.Done():
				return
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		if err := w.dispatchMessage(ctx, msg); err != nil {
			logrus.WithError(err).Warn("message dispatch error")
		}
	}
}

// dispatchMessage decodes and dedupes synchronously and records asynchronously. Every message
// reaches commitCh exactly once so its partition keeps advancing.
func (w *worker) dispatchMessage(ctx context.Context, msg kafka.Message) error {
	event, err := ekafka.DecodeEvent(msg)
	if err != nil {
		metrics.StatsEventsTotal.WithLabelValues("invalid").Inc()
		logrus.WithError(err).Warn("invalid search event")
		w.commitCh <- msg
		return nil
	}
	metrics.StatsEventsTotal.WithLabelValues("received").Inc()

	log := logger.For(logger.ContextWithID(ctx, event.RequestID))
	if event.RequestID != "" {
		fresh, err := w.stats.MarkSeen(ctx, event.RequestID, w.dedupeTTL)
		switch {
		case err != nil:
			// Record anyway; the event may be counted twice.
			log.WithError(err).Warn("dedupe check failed; recording anyway")
		case !fresh:
			metrics.StatsEventsTotal.WithLabelValues("skipped").Inc()
			log.Debug("duplicate search event skipped")
			w.commitCh <- msg
			return nil
		}
	}

	select {
	case <-ctx.Done():
		w.commitCh <- msg
		return ctx.Err()
	case w.sem <- struct{}{}:
	}
	metrics.StatsInFlight.Inc()
	w.wg.Add(1)
	go w.recordAsync(ctx, msg, event)
	return nil
}

// recordAsync writes one event to the stats store; runs in a worker goroutine.
func (w *worker) recordAsync(ctx context.Context, msg kafka.Message, event models.SearchEvent) {
	defer func() {
		metrics.StatsInFlight.Dec()
		<-w.sem
		w.commitCh <- msg
		w.wg.Done()
	}()

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.recordTimeout)
	defer cancel()

	log := logger.For(logger.ContextWithID(ctx, event.RequestID)).WithFields(logrus.Fields{
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})
	if err := w.stats.Record(recordCtx, event); err != nil {
		metrics.StatsEventsTotal.WithLabelValues("failed").Inc()
		log.WithError(err).Warn("failed to record search event")
		return
	}
	metrics.StatsEventsTotal.WithLabelValues("recorded").Inc()
	log.WithFields(logrus.Fields{"query": event.Query, "outcome": event.Outcome}).Debug("search event recorded")
}
