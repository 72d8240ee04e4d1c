package main

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	ekafka "openlibrary-explorer/internal/kafka"
	"openlibrary-explorer/internal/metrics"
)

// commitCoordinator buffers completed messages per partition and commits in offset order.
type commitCoordinator struct {
	reader     ekafka.MessageReader            // Kafka reader used to commit offsets
	commitCh   <-chan kafka.Message            // receives completed messages from workers
	nextOffset map[int]int64                   // per partition: next offset we expect to commit
	pending    map[int]map[int64]kafka.Message // per partition: buffered messages keyed by offset
	mu         sync.Mutex                      // protects nextOffset and pending
}

// newCommitCoordinator creates a coordinator that receives completed messages on commitCh
// and commits them to the reader in per-partition offset order.
func newCommitCoordinator(reader ekafka.MessageReader, commitCh <-chan kafka.Message) *commitCoordinator {
	return &commitCoordinator{
		reader:     reader,
		commitCh:   commitCh,
		nextOffset: make(map[int]int64),
		pending:    make(map[int]map[int64]kafka.Message),
	}
}

// run receives messages from commitCh, enqueues them, and drains contiguous offsets per
// partition until commitCh is closed, then flushes. It keeps receiving after ctx is cancelled
// so in-flight records can always hand their message over; commits use a context detached
// from ctx.
func (c *commitCoordinator) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	commitCtx := context.WithoutCancel(ctx)
	for msg := range c.commitCh {
		c.enqueue(msg)
		c.drain(commitCtx, msg.Partition)
	}
	c.flush(commitCtx)
}

// enqueue adds a completed message to the buffer for its partition.
// The first message seen on a partition sets its starting offset.
func (c *commitCoordinator) enqueue(msg kafka.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := msg.Partition
	next, exists := c.nextOffset[p]
	if exists && msg.Offset < next {
		// Redelivered after its offset was already committed.
		return
	}
	if !exists {
		c.nextOffset[p] = msg.Offset
	}
	if c.pending[p] == nil {
		c.pending[p] = make(map[int64]kafka.Message)
	}
	c.pending[p][msg.Offset] = msg
	metrics.CommitPending.Inc()
}

// commitNext commits the next contiguous message for the partition. Caller must hold c.mu; the
// lock is released during CommitMessages. A failed commit is re-queued without advancing
// nextOffset so a later drain retries it.
func (c *commitCoordinator) commitNext(ctx context.Context, partition int, logMsg string) bool {
	next := c.nextOffset[partition]
	m, ok := c.pending[partition][next]
	if !ok {
		return false
	}
	delete(c.pending[partition], next)
	metrics.CommitPending.Dec()
	c.mu.Unlock()
	start := time.Now()
	err := c.reader.CommitMessages(ctx, m)
	metrics.CommitLatency.Observe(time.Since(start).Seconds())
	c.mu.Lock()
	if err != nil {
		metrics.CommitErrorsTotal.Inc()
		logrus.WithFields(logrus.Fields{"partition": partition, "offset": next}).WithError(err).Warn(logMsg)
		c.pending[partition][next] = m
		metrics.CommitPending.Inc()
		return false
	}
	c.nextOffset[partition] = next + 1
	return true
}

// drain commits all contiguous offsets for the partition starting from nextOffset.
func (c *commitCoordinator) drain(ctx context.Context, partition int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.commitNext(ctx, partition, "commit error") {
	}
}

// flush commits any remaining contiguous messages on shutdown.
func (c *commitCoordinator) flush(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for p := range c.pending {
		for c.commitNext(ctx, p, "commit flush error") {
		}
	}
}
