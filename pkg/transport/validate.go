package transport

import (
	"encoding/json"
	"fmt"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// Validator is the --validate-ipc helper: it emits every event through
// both concrete modes and accumulates any divergence, rather than picking
// one mode as authoritative. It never falls back — a failure in either
// mode is itself the finding, so Transport's automatic fallback behavior
// is bypassed here.
type Validator struct {
	primary *QueueEmitter
	stdout  *StdoutEmitter

	received       []model.ProgressEvent // delivered via the primary queue path
	stdoutReceived []model.ProgressEvent // decoded back off the stdout sentinel encoding
	mismatch       []string
}

// NewValidator builds a Validator over the two concrete emitters.
func NewValidator(primary *QueueEmitter, stdout *StdoutEmitter) *Validator {
	return &Validator{primary: primary, stdout: stdout}
}

// Emit sends ev through both modes, then decodes what the stdout path
// would have produced on the wire and records both sides so Close can
// field-compare them. A delivery failure on either side is recorded as a
// mismatch rather than returned, since validate mode's job is to finish
// the audit and report every divergence found along the way.
func (v *Validator) Emit(ev model.ProgressEvent) error {
	if err := v.primary.Emit(ev); err != nil {
		v.mismatch = append(v.mismatch, fmt.Sprintf("phase=%s step=%d: primary emit failed: %v", ev.Phase, ev.Step, err))
	} else {
		v.received = append(v.received, ev)
	}

	if err := v.stdout.Emit(ev); err != nil {
		v.mismatch = append(v.mismatch, fmt.Sprintf("phase=%s step=%d: stdout emit failed: %v", ev.Phase, ev.Step, err))
		return nil
	}

	data, err := json.Marshal(ev)
	if err != nil {
		v.mismatch = append(v.mismatch, fmt.Sprintf("phase=%s step=%d: stdout encode failed: %v", ev.Phase, ev.Step, err))
		return nil
	}
	decoded, ok, err := ParseSentinelLine(Sentinel + string(data))
	if err != nil || !ok {
		v.mismatch = append(v.mismatch, fmt.Sprintf("phase=%s step=%d: stdout sentinel line failed to decode: %v", ev.Phase, ev.Step, err))
		return nil
	}
	v.stdoutReceived = append(v.stdoutReceived, decoded)
	return nil
}

// Close closes the primary emitter and folds a full field comparison of
// the two captured event sequences into Mismatches.
func (v *Validator) Close() error {
	err := v.primary.Close()
	v.mismatch = append(v.mismatch, Compare(v.received, v.stdoutReceived)...)
	return err
}

// Compare checks a sequence of events captured from the queue side against
// one captured from the stdout side (via DrainQueue/DrainStdout on two
// independent readers) and returns every divergence found.
func Compare(queueSide, stdoutSide []model.ProgressEvent) []string {
	var diffs []string
	n := len(queueSide)
	if len(stdoutSide) < n {
		n = len(stdoutSide)
	}
	for i := 0; i < n; i++ {
		if !EqualModuloTimestamp(queueSide[i], stdoutSide[i]) {
			diffs = append(diffs, fmt.Sprintf("event %d differs: queue=%+v stdout=%+v", i, queueSide[i], stdoutSide[i]))
		}
	}
	if len(queueSide) != len(stdoutSide) {
		diffs = append(diffs, fmt.Sprintf("event count differs: queue=%d stdout=%d", len(queueSide), len(stdoutSide)))
	}
	return diffs
}

// Mismatches returns the divergences recorded so far.
func (v *Validator) Mismatches() []string { return v.mismatch }
