package transport

import (
	"bytes"
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) model.Clock {
	return func() time.Time { return t }
}

func TestSelectMode_FlagsWinOverEverything(t *testing.T) {
	require.Equal(t, ModeQueue, SelectMode(SelectionInputs{ForcePrimary: true, ForceFallback: true}))
	require.Equal(t, ModeStdout, SelectMode(SelectionInputs{ForceFallback: true, EnvMode: "queue"}))
}

func TestSelectMode_EnvBeatsRollout(t *testing.T) {
	require.Equal(t, ModeQueue, SelectMode(SelectionInputs{EnvMode: "queue", RolloutFraction: 0}))
	require.Equal(t, ModeStdout, SelectMode(SelectionInputs{EnvMode: "stdout", RolloutFraction: 1}))
}

func TestSelectMode_RolloutIsDeterministicWithInjectedRand(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	mode := SelectMode(SelectionInputs{RolloutFraction: 1, Rand: r})
	require.Equal(t, ModeQueue, mode)

	r2 := rand.New(rand.NewSource(42))
	mode2 := SelectMode(SelectionInputs{RolloutFraction: 0, Rand: r2})
	require.Equal(t, ModeStdout, mode2)
}

func TestQueueEmitter_DropsOldestWhenFull(t *testing.T) {
	q := NewQueueEmitter(1, 10*time.Millisecond)
	require.NoError(t, q.Emit(model.ProgressEvent{Step: 1}))
	require.NoError(t, q.Emit(model.ProgressEvent{Step: 2}))

	first := <-q.Events()
	require.Equal(t, 2, first.Step, "oldest (step 1) should have been dropped")
}

func TestQueueEmitter_CloseStopsDelivery(t *testing.T) {
	q := NewQueueEmitter(4, 10*time.Millisecond)
	require.NoError(t, q.Close())
	require.ErrorIs(t, q.Emit(model.ProgressEvent{}), model.ErrTransport)
}

func TestStdoutEmitter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	e := NewStdoutEmitter(&buf)
	ev := model.ProgressEvent{Type: model.EventFinding, Phase: model.PhaseSecurity, Step: 3, Pct: 40, Detail: "x"}
	require.NoError(t, e.Emit(ev))

	got, ok, err := ParseSentinelLine(buf.String()[:len(buf.String())-1])
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ev, got)
}

func TestParseSentinelLine_NonSentinelLineIsIgnored(t *testing.T) {
	_, ok, err := ParseSentinelLine("2026-07-30 some ordinary log line")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTransport_FallsBackOnPrimaryFailure(t *testing.T) {
	q := NewQueueEmitter(1, time.Millisecond)
	require.NoError(t, q.Close()) // force every primary Emit to fail
	var buf bytes.Buffer
	stdout := NewStdoutEmitter(&buf)

	tr := New(ModeQueue, q, stdout, fixedClock(time.Unix(1000, 0)))
	err := tr.Emit(model.ProgressEvent{Type: model.EventPhaseStart, Phase: model.PhaseScout})
	require.NoError(t, err)
	require.Equal(t, ModeStdout, tr.Mode())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2, "expect a mode_switch event followed by the original event")

	switchEv, ok, err := ParseSentinelLine(string(lines[0]))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, model.EventModeSwitch, switchEv.Type)

	origEv, ok, err := ParseSentinelLine(string(lines[1]))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, model.PhaseScout, origEv.Phase)
}

func TestDrainQueue_ForwardsUntilClosed(t *testing.T) {
	q := NewQueueEmitter(8, 10*time.Millisecond)
	require.NoError(t, q.Emit(model.ProgressEvent{Step: 1}))
	require.NoError(t, q.Emit(model.ProgressEvent{Step: 2}))
	require.NoError(t, q.Close())

	var got []model.ProgressEvent
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	DrainQueue(ctx, q, func(ev model.ProgressEvent) { got = append(got, ev) })

	require.Len(t, got, 2)
	require.Equal(t, 1, got[0].Step)
	require.Equal(t, 2, got[1].Step)
}

func TestEqualModuloTimestamp(t *testing.T) {
	a := model.ProgressEvent{Type: model.EventFinding, Phase: model.PhaseSecurity, Step: 1, Timestamp: 100, Summary: map[string]string{"k": "v"}}
	b := model.ProgressEvent{Type: model.EventFinding, Phase: model.PhaseSecurity, Step: 1, Timestamp: 200, Summary: map[string]string{"k": "v"}}
	require.True(t, EqualModuloTimestamp(a, b))

	c := b
	c.Step = 2
	require.False(t, EqualModuloTimestamp(a, c))
}

func TestCompare_DetectsCountMismatch(t *testing.T) {
	one := []model.ProgressEvent{{Step: 1}}
	two := []model.ProgressEvent{{Step: 1}, {Step: 2}}
	diffs := Compare(one, two)
	require.NotEmpty(t, diffs)
}

func TestValidator_NoMismatchesWhenBothSidesAgree(t *testing.T) {
	q := NewQueueEmitter(8, time.Second)
	var buf bytes.Buffer
	stdout := NewStdoutEmitter(&buf)
	v := NewValidator(q, stdout)

	events := []model.ProgressEvent{
		{Type: model.EventPhaseStart, Phase: model.PhaseScout, Step: 1, Pct: 0, Timestamp: 1000},
		{Type: model.EventPhaseComplete, Phase: model.PhaseScout, Step: 2, Pct: 100, Timestamp: 1001, Summary: map[string]string{"pages": "1"}},
	}
	for _, ev := range events {
		require.NoError(t, v.Emit(ev))
	}
	require.NoError(t, v.Close())
	require.Empty(t, v.Mismatches())
}

func TestValidator_DetectsFieldDivergenceBetweenModes(t *testing.T) {
	q := NewQueueEmitter(8, time.Second)
	var buf bytes.Buffer
	stdout := NewStdoutEmitter(&buf)
	v := NewValidator(q, stdout)

	require.NoError(t, v.Emit(model.ProgressEvent{Type: model.EventPhaseStart, Phase: model.PhaseScout, Step: 1}))
	// Simulate the stdout side having decoded something that diverges
	// from what the primary path delivered.
	v.stdoutReceived[0].Step = 99

	require.NoError(t, v.Close())
	require.NotEmpty(t, v.Mismatches())
}
