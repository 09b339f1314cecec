package progress

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultQueueSize bounds the number of pending messages.
	DefaultQueueSize = 256
	// DefaultDrainInterval is how often Drain delivers a batch.
	DefaultDrainInterval = 500 * time.Millisecond
)

// Sink accepts status narration. Implementations must not block.
type Sink interface {
	Log(message string)
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Log(string) {}

// Message is one timestamped status line.
type Message struct {
	Time time.Time
	Text string
}

// Consumer receives drained batches in order.
type Consumer interface {
	Consume(ctx context.Context, batch []Message) error
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc func(ctx context.Context, batch []Message) error

// Consume implements Consumer.
func (f ConsumerFunc) Consume(ctx context.Context, batch []Message) error {
	return f(ctx, batch)
}

// Queue is a bounded multi-producer, single-consumer message queue.
type Queue struct {
	ch      chan Message
	done    chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
	now     func() time.Time
}

// NewQueue allocates a queue holding at most size pending messages.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		ch:   make(chan Message, size),
		done: make(chan struct{}),
		now:  time.Now,
	}
}

// Log enqueues message without blocking. Messages logged after Close or
// while the queue is full are counted as dropped.
func (q *Queue) Log(message string) {
	if q == nil {
		return
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.dropped.Add(1)
		return
	}
	select {
	case q.ch <- Message{Time: q.now(), Text: message}:
	default:
		q.dropped.Add(1)
	}
}

// Dropped reports how many messages were discarded.
func (q *Queue) Dropped() uint64 {
	if q == nil {
		return 0
	}
	return q.dropped.Load()
}

// Close stops accepting messages. A running Drain flushes what is pending and
// returns.
func (q *Queue) Close() {
	if q == nil {
		return
	}
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
		close(q.done)
	})
}

// Drain delivers batches to consumer every interval until the queue is
// closed or ctx is cancelled, then flushes once more. Consumer errors are
// returned only if onError is nil; otherwise they are reported and draining
// continues.
func (q *Queue) Drain(ctx context.Context, interval time.Duration, consumer Consumer, onError func(error)) error {
	if interval <= 0 {
		interval = DefaultDrainInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	deliver := func(deliverCtx context.Context) (bool, error) {
		batch, open := q.take()
		if len(batch) == 0 {
			return open, nil
		}
		if err := consumer.Consume(deliverCtx, batch); err != nil {
			if onError == nil {
				return open, err
			}
			onError(err)
		}
		return open, nil
	}

	for {
		select {
		case <-ctx.Done():
			_, err := deliver(context.WithoutCancel(ctx))
			return err
		case <-q.done:
			for {
				open, err := deliver(ctx)
				if err != nil || !open {
					return err
				}
			}
		case <-ticker.C:
			if _, err := deliver(ctx); err != nil {
				return err
			}
		}
	}
}

// take removes every pending message. open is false once the queue is
// closed and empty.
func (q *Queue) take() (batch []Message, open bool) {
	for {
		select {
		case m, ok := <-q.ch:
			if !ok {
				return batch, false
			}
			batch = append(batch, m)
		default:
			return batch, true
		}
	}
}
