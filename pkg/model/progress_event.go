package model

import "time"

// EventType enumerates the progress-event kinds the supervisor converts
// into user-facing events.
type EventType string

const (
	EventPhaseStart    EventType = "phase_start"
	EventPhaseComplete EventType = "phase_complete"
	EventPhaseError    EventType = "phase_error"
	EventFinding       EventType = "finding"
	EventScreenshot    EventType = "screenshot"
	EventStatsUpdate   EventType = "stats_update"
	EventAuditResult   EventType = "audit_result"
	EventAuditComplete EventType = "audit_complete"
	EventAuditError    EventType = "audit_error"
	EventModeSwitch    EventType = "mode_switch"
)

// Phase identifies one of the fixed orchestrator phases.
type Phase string

const (
	PhaseInit         Phase = "init"
	PhaseScout        Phase = "scout"
	PhaseSecurity     Phase = "security"
	PhaseVision       Phase = "vision"
	PhaseGraph        Phase = "graph"
	PhaseJudge        Phase = "judge"
	PhaseForceVerdict Phase = "force_verdict"
	PhaseDone         Phase = "done"
	PhaseAborted      Phase = "aborted"
)

// ProgressEvent is the transport message carried by both the primary
// (queue) and fallback (stdout line) modes, field-for-field identical
// across both — only the wire representation differs.
type ProgressEvent struct {
	Type      EventType         `json:"type"`
	Phase     Phase             `json:"phase"`
	Step      int               `json:"step"`
	Pct       int               `json:"pct"`
	Detail    string            `json:"detail"`
	Summary   map[string]string `json:"summary,omitempty"`
	Timestamp int64             `json:"timestamp"`
	Data      string            `json:"data,omitempty"` // base64, screenshot events only
}

// Clock is injected everywhere a timestamp is needed so tests can supply a
// deterministic source instead of time.Now — events should compare equal
// modulo timestamp, but production code still needs *a* monotonically
// sensible clock.
type Clock func() time.Time

// RealClock is the production Clock.
func RealClock() time.Time { return time.Now() }
