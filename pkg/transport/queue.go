package transport

import (
	"log/slog"
	"sync"
	"time"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// QueueEmitter is the primary transport: a bounded, thread-safe in-process
// FIFO. In a deployed supervisor/worker split this channel is the local
// leg of a cross-process queue (e.g. a named pipe or broker connection);
// within this module it is the channel itself, and a supervisor goroutine
// drains it directly (see Reader).
//
// Sends never block the caller indefinitely: a send that cannot complete
// within SendTimeout drops the oldest queued event and retries exactly
// once, then gives up and reports ErrTransport so Transport can fail over
// to the stdout fallback.
type QueueEmitter struct {
	ch      chan model.ProgressEvent
	timeout time.Duration

	mu     sync.Mutex
	closed bool
}

// NewQueueEmitter constructs a QueueEmitter with the given buffer capacity
// and per-send timeout.
func NewQueueEmitter(capacity int, sendTimeout time.Duration) *QueueEmitter {
	if capacity < 1 {
		capacity = 1
	}
	return &QueueEmitter{
		ch:      make(chan model.ProgressEvent, capacity),
		timeout: sendTimeout,
	}
}

// Events exposes the read side for a Reader to drain.
func (q *QueueEmitter) Events() <-chan model.ProgressEvent {
	return q.ch
}

// Emit attempts to deliver ev within SendTimeout. On a full queue it drops
// the single oldest pending event and retries once before giving up.
func (q *QueueEmitter) Emit(ev model.ProgressEvent) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return model.ErrTransport
	}
	q.mu.Unlock()

	if q.trySend(ev) {
		return nil
	}

	select {
	case dropped := <-q.ch:
		slog.Warn("primary transport queue full, dropping oldest event",
			"dropped_type", dropped.Type, "dropped_phase", dropped.Phase)
	default:
	}

	if q.trySend(ev) {
		return nil
	}
	return model.ErrTransport
}

func (q *QueueEmitter) trySend(ev model.ProgressEvent) bool {
	timer := time.NewTimer(q.timeout)
	defer timer.Stop()
	select {
	case q.ch <- ev:
		return true
	case <-timer.C:
		return false
	}
}

// Close marks the emitter closed and closes the underlying channel so a
// Reader's range loop terminates. Calling it again is a no-op.
func (q *QueueEmitter) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.ch)
	return nil
}
