package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditState_StatusIsSticky(t *testing.T) {
	s := New("audit-1", "https://example.com", TierQuick, Budget{MaxIterations: 1, MaxPages: 1, MaxAICalls: 1})

	s.SetStatus(StatusAborted)
	require.Equal(t, StatusAborted, s.Status)

	s.SetStatus(StatusCompleted)
	assert.Equal(t, StatusAborted, s.Status, "terminal status must not be overwritten")
}

func TestAuditState_PendingURLsInvariant(t *testing.T) {
	s := New("audit-1", "https://example.com", TierDeep, Budget{MaxIterations: 3, MaxPages: 10, MaxAICalls: 10})

	s.EnqueueURLs([]string{"https://example.com/a", "https://example.com/b"})
	popped := s.PopPendingURLs(2)
	require.ElementsMatch(t, []string{"https://example.com", "https://example.com/a"}, popped)

	// Re-enqueuing an already-investigated URL must not create a duplicate;
	// only the not-yet-popped /b remains pending.
	s.EnqueueURLs([]string{"https://example.com/a"})
	assert.Equal(t, []string{"https://example.com/b"}, s.PendingURLs)
}

func TestAuditState_BudgetExceeded(t *testing.T) {
	s := New("audit-1", "https://example.com", TierQuick, Budget{MaxIterations: 1, MaxPages: 1, MaxAICalls: 5})
	assert.False(t, s.BudgetExceeded())

	s.RecordScoutSuccess(ScoutEvidence{URL: "https://example.com"})
	assert.True(t, s.BudgetExceeded(), "max_pages=1 must be exceeded after one scouted page")
}

func TestAuditState_ScoutFailureBoundary(t *testing.T) {
	s := New("audit-1", "https://example.com", TierQuick, Budget{MaxIterations: 3, MaxPages: 3, MaxAICalls: 3})

	assert.False(t, s.RecordScoutFailure())
	assert.False(t, s.RecordScoutFailure())
	assert.True(t, s.RecordScoutFailure(), "third consecutive scout failure with zero evidence must force verdict")
}

func TestBudget_Exceeded_AICallsIsSoftButStillGates(t *testing.T) {
	b := Budget{MaxIterations: 10, MaxPages: 10, MaxAICalls: 2}
	assert.True(t, b.Exceeded(0, Counters{AICalls: 2}))
	assert.False(t, b.Exceeded(0, Counters{AICalls: 1}))
}

func TestRiskLevelForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  RiskLevel
	}{
		{92, RiskTrusted},
		{90, RiskTrusted},
		{89, RiskProbablySafe},
		{70, RiskProbablySafe},
		{40, RiskSuspicious},
		{39, RiskHigh},
		{20, RiskHigh},
		{19, RiskLikelyFraudulent},
		{0, RiskLikelyFraudulent},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RiskLevelForScore(c.score), "score=%v", c.score)
	}
}
