package transport

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// emitter is the minimal contract both concrete modes satisfy.
type emitter interface {
	Emit(ev model.ProgressEvent) error
	Close() error
}

// Transport is the orchestrator-facing handle: it emits ProgressEvents
// through whichever mode is currently active, and falls over to stdout if
// the primary queue mode ever fails to deliver. A mode switch is itself
// emitted as a ProgressEvent, telling the client about the channel's own
// health rather than silently papering over it.
type Transport struct {
	clock model.Clock

	mu      sync.Mutex
	mode    atomic.Value // Mode
	primary *QueueEmitter
	stdout  *StdoutEmitter
	current emitter
}

// New builds a Transport starting in the given mode. primary is used when
// mode is ModeQueue; stdout always exists underneath as the fallback
// target, since queue failures can happen mid-audit.
func New(mode Mode, primary *QueueEmitter, stdout *StdoutEmitter, clock model.Clock) *Transport {
	if clock == nil {
		clock = model.RealClock
	}
	t := &Transport{
		clock:   clock,
		primary: primary,
		stdout:  stdout,
	}
	t.mode.Store(mode)
	if mode == ModeQueue {
		t.current = primary
	} else {
		t.current = stdout
	}
	return t
}

// Mode reports the transport's currently active mode.
func (t *Transport) Mode() Mode {
	return t.mode.Load().(Mode)
}

// Emit sends ev through the active mode. On a queue-mode failure it falls
// back to stdout for the remainder of the audit and emits a mode_switch
// event (through stdout, the mode that just became active) so downstream
// consumers know earlier events may have arrived via a different channel.
func (t *Transport) Emit(ev model.ProgressEvent) error {
	t.mu.Lock()
	cur := t.current
	mode := t.Mode()
	t.mu.Unlock()

	if err := cur.Emit(ev); err == nil {
		return nil
	} else if mode != ModeQueue {
		return err
	}

	t.mu.Lock()
	t.current = t.stdout
	t.mu.Unlock()
	t.mode.Store(ModeStdout)

	slog.Warn("primary transport failed, falling back to stdout", "phase", ev.Phase)

	switchEv := model.ProgressEvent{
		Type:      model.EventModeSwitch,
		Phase:     ev.Phase,
		Detail:    "primary queue transport failed; switched to stdout fallback",
		Timestamp: t.clock().Unix(),
	}
	if err := t.stdout.Emit(switchEv); err != nil {
		return err
	}
	return t.stdout.Emit(ev)
}

// Close shuts down the primary emitter (stdout has nothing to release).
func (t *Transport) Close() error {
	if t.primary != nil {
		return t.primary.Close()
	}
	return nil
}

// NewFromSelection is the cmd/audit entry point's convenience constructor:
// it resolves the mode via SelectMode and wires up both concrete emitters.
func NewFromSelection(in SelectionInputs, queueCapacity int, sendTimeout time.Duration, stdout io.Writer, clock model.Clock) *Transport {
	mode := SelectMode(in)
	primary := NewQueueEmitter(queueCapacity, sendTimeout)
	fallback := NewStdoutEmitter(stdout)
	return New(mode, primary, fallback, clock)
}
