package transport

import (
	"bufio"
	"context"
	"io"
	"log/slog"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// Sink receives each decoded ProgressEvent as the supervisor observes it.
type Sink func(model.ProgressEvent)

// DrainQueue reads events off a QueueEmitter's channel until it is closed
// or ctx is cancelled, forwarding each to sink in order. Intended to run
// in its own goroutine for the lifetime of an audit running in queue mode.
func DrainQueue(ctx context.Context, q *QueueEmitter, sink Sink) {
	events := q.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			sink(ev)
		case <-ctx.Done():
			return
		}
	}
}

// DrainStdout reads lines from r (typically a subprocess's stdout pipe),
// forwarding decoded sentinel lines to sink. Non-sentinel lines are
// ignored: the fallback protocol shares stdout with any other output the
// process might produce, and only sentinel-prefixed lines are events.
func DrainStdout(r io.Reader, sink Sink) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		ev, ok, err := ParseSentinelLine(scanner.Text())
		if err != nil {
			slog.Warn("discarding malformed sentinel line", "error", err)
			continue
		}
		if !ok {
			continue
		}
		sink(ev)
	}
	return scanner.Err()
}

// EqualModuloTimestamp reports whether two events are identical except for
// their Timestamp field. Used by validate mode: both transport
// modes run side by side for the same audit, and the resulting event
// sequences must match field-for-field but are never expected to share a
// wall-clock timestamp.
func EqualModuloTimestamp(a, b model.ProgressEvent) bool {
	if a.Type != b.Type || a.Phase != b.Phase || a.Step != b.Step ||
		a.Pct != b.Pct || a.Detail != b.Detail || a.Data != b.Data {
		return false
	}
	if len(a.Summary) != len(b.Summary) {
		return false
	}
	for k, v := range a.Summary {
		if b.Summary[k] != v {
			return false
		}
	}
	return true
}
