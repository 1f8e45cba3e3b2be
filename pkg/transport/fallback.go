package transport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// Sentinel prefixes every fallback line so a supervisor reading a child
// process's combined stdout can pick progress events out of ordinary log
// lines or partial output.
const Sentinel = "URLAUDIT_EVENT::"

// StdoutEmitter is the fallback transport: one JSON-encoded ProgressEvent
// per line, each prefixed with Sentinel, written to w. Used when the
// primary queue mode is unavailable or fails during an audit.
type StdoutEmitter struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewStdoutEmitter wraps w (typically os.Stdout) for sentinel-line output.
func NewStdoutEmitter(w io.Writer) *StdoutEmitter {
	return &StdoutEmitter{w: bufio.NewWriter(w)}
}

// Emit writes one sentinel-prefixed JSON line and flushes immediately so
// a line-buffered reader on the other end sees it without delay.
func (s *StdoutEmitter) Emit(ev model.ProgressEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: marshal event: %v", model.ErrTransport, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.WriteString(Sentinel); err != nil {
		return fmt.Errorf("%w: %v", model.ErrTransport, err)
	}
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("%w: %v", model.ErrTransport, err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("%w: %v", model.ErrTransport, err)
	}
	return s.w.Flush()
}

// Close is a no-op: StdoutEmitter does not own the underlying writer.
func (s *StdoutEmitter) Close() error { return nil }

// ParseSentinelLine strips the sentinel prefix and decodes the event. It
// returns ok=false for lines that are not sentinel lines (ordinary output
// mixed into the same stream), which the caller should pass through
// untouched rather than treat as an error.
func ParseSentinelLine(line string) (ev model.ProgressEvent, ok bool, err error) {
	const prefixLen = len(Sentinel)
	if len(line) < prefixLen || line[:prefixLen] != Sentinel {
		return model.ProgressEvent{}, false, nil
	}
	if err := json.Unmarshal([]byte(line[prefixLen:]), &ev); err != nil {
		return model.ProgressEvent{}, true, fmt.Errorf("%w: decode sentinel line: %v", model.ErrTransport, err)
	}
	return ev, true, nil
}
