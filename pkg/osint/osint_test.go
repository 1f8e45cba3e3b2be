package osint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/darkpatternlabs/urlaudit/pkg/config"
	"github.com/darkpatternlabs/urlaudit/pkg/model"
	"github.com/stretchr/testify/require"
)

func TestQuotaTracker_RejectsOnceRPMExhausted(t *testing.T) {
	q := NewQuotaTracker(1, 100)
	now := time.Unix(1000, 0)

	require.True(t, q.Allow(now))
	for i := 0; i < 4; i++ {
		require.False(t, q.Allow(now))
	}

	later := now.Add(time.Minute + time.Second)
	require.True(t, q.Allow(later))
}

func TestCircuitBreaker_NeverSkipsHalfOpen(t *testing.T) {
	b := NewCircuitBreaker(2, 10*time.Millisecond)
	require.Equal(t, BreakerClosed, b.State())

	b.RecordFailure()
	require.Equal(t, BreakerClosed, b.State())
	b.RecordFailure()
	require.Equal(t, BreakerOpen, b.State())

	require.False(t, b.Allow()) // still within sleep window
	time.Sleep(15 * time.Millisecond)

	require.True(t, b.Allow())
	require.Equal(t, BreakerHalfOpen, b.State())
	require.False(t, b.Allow()) // only one trial in flight

	b.RecordSuccess()
	require.Equal(t, BreakerClosed, b.State())
}

func TestCircuitBreaker_HalfOpenFailureReopensImmediately(t *testing.T) {
	b := NewCircuitBreaker(1, time.Millisecond)
	b.RecordFailure()
	require.Equal(t, BreakerOpen, b.State())

	time.Sleep(2 * time.Millisecond)
	require.True(t, b.Allow())
	require.Equal(t, BreakerHalfOpen, b.State())

	b.RecordFailure()
	require.Equal(t, BreakerOpen, b.State())
}

type fakeQuerier struct {
	verdict    string
	confidence float64
	err        error
	calls      int
}

func (f *fakeQuerier) Query(ctx context.Context, target string) (Result, error) {
	f.calls++
	if f.err != nil {
		return Result{}, f.err
	}
	return Result{Verdict: f.verdict, Confidence: f.confidence, Detail: "fake"}, nil
}

func testSourceConfig(name, category string, tier int) config.SourceConfig {
	return config.SourceConfig{
		Name:         name,
		Category:     category,
		PriorityTier: tier,
		RPM:          10,
		RPH:          100,
		CacheTTL:     time.Minute,
		TrustLevel:   "high",
		BaseWeight:   1.0,
	}
}

func TestQueryOne_CachesSuccessfulResult(t *testing.T) {
	reg := NewRegistry(nil)
	q := &fakeQuerier{verdict: "clean", confidence: 0.9}
	reg.Register(testSourceConfig("dns_lookup", "network", 1), q, 3, time.Minute)

	clock := func() time.Time { return time.Unix(2000, 0) }

	res, err := reg.QueryOne(context.Background(), "dns_lookup", "example.com", clock)
	require.NoError(t, err)
	require.Equal(t, "clean", res.Verdict)
	require.Equal(t, 1, q.calls)

	res2, err := reg.QueryOne(context.Background(), "dns_lookup", "example.com", clock)
	require.NoError(t, err)
	require.Equal(t, "clean", res2.Verdict)
	require.Equal(t, 1, q.calls, "second call should be served from cache")
}

func TestQueryOne_RateLimitedReturnsSourceError(t *testing.T) {
	reg := NewRegistry(nil)
	q := &fakeQuerier{verdict: "clean", confidence: 0.9}
	src := testSourceConfig("dns_lookup", "network", 1)
	src.RPM = 1
	reg.Register(src, q, 3, time.Minute)

	clock := func() time.Time { return time.Unix(3000, 0) }
	_, err := reg.QueryOne(context.Background(), "dns_lookup", "a.com", clock)
	require.NoError(t, err)

	_, err = reg.QueryOne(context.Background(), "dns_lookup", "b.com", clock)
	require.Error(t, err)
	require.ErrorIs(t, err, model.ErrRateLimited)
}

func TestQueryOne_UpstreamFailureOpensBreakerAfterThreshold(t *testing.T) {
	reg := NewRegistry(nil)
	q := &fakeQuerier{err: errors.New("boom")}
	reg.Register(testSourceConfig("whois_lookup", "network", 1), q, 2, time.Hour)

	clock := func() time.Time { return time.Unix(4000, 0) }
	for i := 0; i < 2; i++ {
		_, err := reg.QueryOne(context.Background(), "whois_lookup", "x.com", clock)
		require.Error(t, err)
	}

	_, err := reg.QueryOne(context.Background(), "whois_lookup", "x.com", clock)
	require.ErrorIs(t, err, model.ErrCircuitOpen)
}

func TestQueryWithFallback_FallsBackToAlternateSameCategorySource(t *testing.T) {
	reg := NewRegistry(nil)
	failing := &fakeQuerier{err: errors.New("down")}
	alt := &fakeQuerier{verdict: "malicious", confidence: 0.8}

	reg.Register(testSourceConfig("phishtank", "reputation", 2), failing, 1, time.Hour)
	reg.Register(testSourceConfig("urlhaus", "reputation", 2), alt, 1, time.Hour)

	cfg := config.OSINTConfig{SmartFallbackAttempts: 1}
	clock := func() time.Time { return time.Unix(5000, 0) }

	res, err := reg.queryWithFallback(context.Background(), testSourceConfig("phishtank", "reputation", 2), "z.com", cfg, clock)
	require.NoError(t, err)
	require.Equal(t, "malicious", res.Verdict)
	require.Equal(t, 1, alt.calls)
}

func TestQueryWithFallback_NeverRepeatsAPreviouslyTriedSource(t *testing.T) {
	reg := NewRegistry(nil)
	first := &fakeQuerier{err: errors.New("down")}
	second := &fakeQuerier{err: errors.New("also down")}
	third := &fakeQuerier{verdict: "clean", confidence: 0.6}

	reg.Register(testSourceConfig("phishtank", "reputation", 2), first, 1, time.Hour)
	reg.Register(testSourceConfig("urlhaus", "reputation", 2), second, 1, time.Hour)
	reg.Register(testSourceConfig("zzzfeed", "reputation", 2), third, 1, time.Hour)

	cfg := config.OSINTConfig{SmartFallbackAttempts: 2}
	clock := func() time.Time { return time.Unix(5500, 0) }

	res, err := reg.queryWithFallback(context.Background(), testSourceConfig("phishtank", "reputation", 2), "z.com", cfg, clock)
	require.NoError(t, err)
	require.Equal(t, "clean", res.Verdict)

	require.Equal(t, 1, first.calls)
	require.Equal(t, 1, second.calls, "urlhaus should be tried exactly once, not re-selected on the second attempt")
	require.Equal(t, 1, third.calls)
}

func TestQueryAll_RespectsParallelismAndGroupsByTier(t *testing.T) {
	reg := NewRegistry(nil)
	q1 := &fakeQuerier{verdict: "clean", confidence: 0.9}
	q2 := &fakeQuerier{verdict: "clean", confidence: 0.9}
	s1 := testSourceConfig("dns_lookup", "network", 1)
	s2 := testSourceConfig("whois_lookup", "network", 1)
	reg.Register(s1, q1, 3, time.Minute)
	reg.Register(s2, q2, 3, time.Minute)

	cfg := config.OSINTConfig{ParallelismCap: 2, SmartFallbackAttempts: 0}
	clock := func() time.Time { return time.Unix(6000, 0) }

	results, errs := reg.QueryAll(context.Background(), []config.SourceConfig{s1, s2}, "site.com", cfg, clock)
	require.Empty(t, errs)
	require.Len(t, results, 2)
}

func TestResolve_OrderIndependent(t *testing.T) {
	results := []model.VerificationResult{
		{Source: "alpha", Verdict: "malicious", Confidence: 0.7, TrustLevel: "high"},
		{Source: "beta", Verdict: "clean", Confidence: 0.8, TrustLevel: "medium"},
	}
	reversed := []model.VerificationResult{results[1], results[0]}

	weights := map[string]config.SourceConfig{
		"alpha": {BaseWeight: 1.0, ConfidenceBias: 1.0},
		"beta":  {BaseWeight: 1.0, ConfidenceBias: 1.0},
	}

	a := Resolve("example.com", results, weights, Thresholds{})
	b := Resolve("example.com", reversed, weights, Thresholds{})

	require.Equal(t, a.MaliciousRatio, b.MaliciousRatio)
	require.Equal(t, a.OverallVerdict, b.OverallVerdict)
	require.ElementsMatch(t, a.Conflicts, b.Conflicts)
}

func TestResolve_OSINTConflictScenario(t *testing.T) {
	results := []model.VerificationResult{
		{Source: "alpha", Verdict: "malicious", Confidence: 0.7, TrustLevel: "high", Detail: "listed"},
		{Source: "beta", Verdict: "clean", Confidence: 0.8, TrustLevel: "medium", Detail: "not listed"},
	}
	weights := map[string]config.SourceConfig{
		"alpha": {BaseWeight: 0.95, ConfidenceBias: 1.2},
		"beta":  {BaseWeight: 0.6, ConfidenceBias: 1.0},
	}

	ev := Resolve("example.com", results, weights, Thresholds{})

	require.GreaterOrEqual(t, ev.MaliciousRatio, 0.5)
	require.Equal(t, "malicious", ev.OverallVerdict)
	require.Len(t, ev.Conflicts, 1)
	require.Equal(t, "alpha", ev.Conflicts[0].MaliciousSource)
	require.Equal(t, "beta", ev.Conflicts[0].CleanSource)
	require.False(t, ev.Confirmed, "a single high-trust source below the high-confidence threshold must not confirm")
}

func TestResolve_NoResultsYieldsUnknown(t *testing.T) {
	ev := Resolve("example.com", nil, nil, Thresholds{})
	require.Equal(t, "unknown", ev.OverallVerdict)
	require.Zero(t, ev.MaliciousRatio)
}

func TestResolve_OverallConfidenceDerivedFromRatioNotRawAverage(t *testing.T) {
	// Three agreeing malicious sources with low raw confidence and one
	// clean source with higher raw confidence: malicious_ratio is
	// 0.9 / (0.9 + 0.6) = 0.6, above the malicious threshold, while a
	// plain average of Confidence would be 0.375, far from the ratio's
	// own value.
	results := []model.VerificationResult{
		{Source: "alpha", Verdict: "malicious", Confidence: 0.3, TrustLevel: "high"},
		{Source: "beta", Verdict: "malicious", Confidence: 0.3, TrustLevel: "high"},
		{Source: "gamma", Verdict: "malicious", Confidence: 0.3, TrustLevel: "high"},
		{Source: "delta", Verdict: "clean", Confidence: 0.6, TrustLevel: "high"},
	}
	weights := map[string]config.SourceConfig{
		"alpha": {BaseWeight: 1.0, ConfidenceBias: 1.0},
		"beta":  {BaseWeight: 1.0, ConfidenceBias: 1.0},
		"gamma": {BaseWeight: 1.0, ConfidenceBias: 1.0},
		"delta": {BaseWeight: 1.0, ConfidenceBias: 1.0},
	}

	ev := Resolve("example.com", results, weights, Thresholds{})

	require.Equal(t, "malicious", ev.OverallVerdict)
	require.InDelta(t, ev.MaliciousRatio*100, ev.OverallConfidence, 0.0001)
	// A raw average of Confidence (0.3, 0.3, 0.3, 0.6) would be 37.5,
	// which must not be what OverallConfidence reports here.
	require.NotInDelta(t, 37.5, ev.OverallConfidence, 1.0)
}
