package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/darkpatternlabs/urlaudit/pkg/config"
	"github.com/darkpatternlabs/urlaudit/pkg/model"
	"github.com/darkpatternlabs/urlaudit/pkg/osint"
	"github.com/darkpatternlabs/urlaudit/pkg/scout"
	"github.com/darkpatternlabs/urlaudit/pkg/vision"
	"github.com/stretchr/testify/require"
)

// recordingEmitter captures every event in arrival order for assertions
// about ordering, monotonicity, and terminal-event placement.
type recordingEmitter struct {
	events []model.ProgressEvent
}

func (r *recordingEmitter) Emit(ev model.ProgressEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func fakeClock(t *time.Time) model.Clock {
	return func() time.Time { return *t }
}

func baseDeps(t *testing.T) (Deps, *recordingEmitter) {
	t.Helper()
	cfg := config.Builtin()
	now := time.Unix(1_700_000_000, 0)
	emitter := &recordingEmitter{}
	deps := Deps{
		Config: cfg,
		Scout: scout.Func(func(ctx context.Context, url string) (model.ScoutEvidence, error) {
			return model.ScoutEvidence{URL: url, Title: "fixture", FetchedAtUnix: now.Unix()}, nil
		}),
		Vision: vision.Func(func(ctx context.Context, images []vision.Image, prompts []string) ([]model.Finding, error) {
			return nil, nil
		}),
		OSINT:     osint.NewRegistry(nil),
		Transport: emitter,
		Clock:     fakeClock(&now),
	}
	return deps, emitter
}

func TestRun_HappyPath(t *testing.T) {
	deps, emitter := baseDeps(t)
	o := New(deps)

	final, err := o.Run(context.Background(), "audit-1", "https://example.com", model.TierQuick, Options{VerdictMode: model.VerdictModeSimple})
	require.NoError(t, err)
	require.Equal(t, "https://example.com", final.URL)
	require.Equal(t, 1, final.PagesScanned)

	require.NotEmpty(t, emitter.events)
	last := emitter.events[len(emitter.events)-1]
	require.Equal(t, model.EventAuditComplete, last.Type)

	var sawResult bool
	for i, ev := range emitter.events {
		if ev.Type == model.EventAuditResult {
			sawResult = true
			require.Less(t, i, len(emitter.events)-1, "audit_result must precede audit_complete")
		}
	}
	require.True(t, sawResult)
}

func TestRun_PhishingOverrideClampsRegardlessOfOtherSignals(t *testing.T) {
	deps, _ := baseDeps(t)
	q := fakeSourceQuerier{verdict: "malicious", confidence: 0.95}
	deps.OSINT.Register(config.SourceConfig{
		Name: "phishtank", Category: "reputation", PriorityTier: 1,
		RPM: 100, RPH: 1000, TrustLevel: "high", BaseWeight: 0.95, ConfidenceBias: 1.2,
	}, q, 3, time.Minute)
	deps.Config.OSINT.Sources = []config.SourceConfig{
		{Name: "phishtank", Category: "reputation", PriorityTier: 1, RPM: 100, RPH: 1000, TrustLevel: "high", BaseWeight: 0.95, ConfidenceBias: 1.2},
	}

	o := New(deps)
	final, err := o.Run(context.Background(), "audit-2", "http://totally-not-a-bank.tk", model.TierQuick, Options{})
	require.NoError(t, err)

	require.LessOrEqual(t, final.TrustScore, 20.0)
	require.Equal(t, model.RiskLikelyFraudulent, final.RiskLevel)
	require.Contains(t, final.Overrides, "phishing_list_hit")
}

// fakeSourceQuerier implements osint.Querier with a fixed answer.
type fakeSourceQuerier struct {
	verdict    string
	confidence float64
}

func (f fakeSourceQuerier) Query(ctx context.Context, target string) (osint.Result, error) {
	return osint.Result{Verdict: f.verdict, Confidence: f.confidence, Detail: "fixture"}, nil
}

func TestRun_LoopAndTerminateOnPageBudget(t *testing.T) {
	deps, _ := baseDeps(t)

	var scoutCalls int
	deps.Scout = scout.Func(func(ctx context.Context, url string) (model.ScoutEvidence, error) {
		scoutCalls++
		return model.ScoutEvidence{
			URL:             url,
			FetchedAtUnix:   0,
			DiscoveredLinks: []string{"https://example.com/more"},
		}, nil
	})

	requests := 0
	deps.Judge = func(s *model.AuditState, result model.TrustResult) (bool, []string) {
		requests++
		return true, []string{"https://example.com/a", "https://example.com/b", "https://example.com/c", "https://example.com/d", "https://example.com/e"}
	}

	o := New(deps)
	final, err := o.Run(context.Background(), "audit-3", "https://example.com", model.TierDeep, Options{})
	require.NoError(t, err)

	require.LessOrEqual(t, final.PagesScanned, 10)
	require.GreaterOrEqual(t, scoutCalls, 1)
}

func TestRun_OSINTConflictScenario(t *testing.T) {
	deps, _ := baseDeps(t)
	deps.OSINT.Register(config.SourceConfig{Name: "alpha", Category: "reputation", PriorityTier: 1, RPM: 100, RPH: 1000, TrustLevel: "high", BaseWeight: 0.95, ConfidenceBias: 1.2},
		fakeSourceQuerier{verdict: "malicious", confidence: 0.7}, 3, time.Minute)
	deps.OSINT.Register(config.SourceConfig{Name: "beta", Category: "dns", PriorityTier: 1, RPM: 100, RPH: 1000, TrustLevel: "medium", BaseWeight: 0.6, ConfidenceBias: 1.0},
		fakeSourceQuerier{verdict: "clean", confidence: 0.8}, 3, time.Minute)
	deps.Config.OSINT.Sources = []config.SourceConfig{
		{Name: "alpha", Category: "reputation", PriorityTier: 1, RPM: 100, RPH: 1000, TrustLevel: "high", BaseWeight: 0.95, ConfidenceBias: 1.2},
		{Name: "beta", Category: "dns", PriorityTier: 1, RPM: 100, RPH: 1000, TrustLevel: "medium", BaseWeight: 0.6, ConfidenceBias: 1.0},
	}

	o := New(deps)
	final, err := o.Run(context.Background(), "audit-4", "https://example.com", model.TierQuick, Options{})
	require.NoError(t, err)
	require.NotNil(t, final)
}

func TestRun_CancellationDuringVisionEmitsAuditErrorWithCancelledReason(t *testing.T) {
	deps, emitter := baseDeps(t)
	deps.Vision = vision.Func(func(ctx context.Context, images []vision.Image, prompts []string) ([]model.Finding, error) {
		return nil, context.Canceled
	})

	o := New(deps)
	final, err := o.Run(context.Background(), "audit-5", "https://example.com", model.TierQuick, Options{})
	require.NoError(t, err)
	require.NotNil(t, final)

	last := emitter.events[len(emitter.events)-1]
	require.Equal(t, model.EventAuditError, last.Type)
	require.Equal(t, "cancelled", last.Summary["reason"])

	for _, ev := range emitter.events {
		require.NotEqual(t, model.EventAuditResult, ev.Type, "a cancelled audit must never emit audit_result")
	}
	require.Zero(t, final.TrustScore)
	require.Equal(t, model.StatusAborted, final.Status)
}

func TestRun_BudgetInvariantsHoldAtEveryTransition(t *testing.T) {
	deps, emitter := baseDeps(t)
	deps.Scout = scout.Func(func(ctx context.Context, url string) (model.ScoutEvidence, error) {
		return model.ScoutEvidence{URL: url, DiscoveredLinks: []string{url + "/x"}}, nil
	})
	deps.Judge = func(s *model.AuditState, result model.TrustResult) (bool, []string) {
		return s.HasPendingURLs(), []string{"https://example.com/more"}
	}

	o := New(deps)
	final, err := o.Run(context.Background(), "audit-6", "https://example.com", model.TierStandard, Options{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, final.PagesScanned, 0)
	require.LessOrEqual(t, final.PagesScanned, 5)

	for _, ev := range emitter.events {
		require.GreaterOrEqual(t, ev.Pct, 0)
		require.LessOrEqual(t, ev.Pct, 100)
	}

	terminalCount := 0
	for _, ev := range emitter.events {
		if ev.Type == model.EventAuditComplete || ev.Type == model.EventAuditError {
			terminalCount++
		}
	}
	require.Equal(t, 1, terminalCount)
	require.True(t, emitter.events[len(emitter.events)-1].Type == model.EventAuditComplete || emitter.events[len(emitter.events)-1].Type == model.EventAuditError)
}

func TestRun_ScoutFailureBoundaryForcesVerdict(t *testing.T) {
	deps, _ := baseDeps(t)
	boom := errors.New("scout down")
	deps.Scout = scout.Func(func(ctx context.Context, url string) (model.ScoutEvidence, error) {
		return model.ScoutEvidence{}, boom
	})

	// Each judge call hands back one fresh URL so a later iteration has
	// something pending to scout (and fail) again, letting the
	// consecutive-failure streak actually reach three.
	next := 0
	deps.Judge = func(s *model.AuditState, result model.TrustResult) (bool, []string) {
		next++
		return true, []string{fmt.Sprintf("https://example.com/%d", next)}
	}

	o := New(deps)
	final, err := o.Run(context.Background(), "audit-7", "https://example.com", model.TierDeep, Options{})
	require.NoError(t, err)

	var scoutErrs int
	for _, e := range final.Errors {
		if e.Phase == "scout" {
			scoutErrs++
		}
	}
	require.Equal(t, 3, scoutErrs)
	require.Equal(t, 0, final.PagesScanned)
}

func TestRun_UnknownTierIsInputError(t *testing.T) {
	deps, _ := baseDeps(t)
	o := New(deps)
	_, err := o.Run(context.Background(), "audit-8", "https://example.com", model.Tier("not-a-tier"), Options{})
	require.ErrorIs(t, err, model.ErrInput)
}
