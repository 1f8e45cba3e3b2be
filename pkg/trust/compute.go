package trust

import (
	"fmt"
	"math"

	"github.com/darkpatternlabs/urlaudit/pkg/config"
	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// Input bundles everything Compute needs, gathered from a finished (or
// force-terminated) AuditState.
type Input struct {
	Signals   model.SignalSet
	SiteType  *model.SiteType
	Graph     *model.GraphEvidence
	Security  map[string]model.SecurityModuleResult
	Findings  []model.Finding
}

// Compute turns evidence into a single TrustResult, deterministically:
// identical input always produces byte-identical output, and permuting
// signal iteration order never changes the sum because every step walks
// model.SignalOrder explicitly.
func Compute(cfg *config.Config, in Input) model.TrustResult {
	weights := normalizeWeights(effectiveWeights(cfg.Weights, in.SiteType))

	var raw float64
	signalScores := make(map[model.SignalName]int, len(model.SignalOrder))
	for _, name := range model.SignalOrder {
		sig := in.Signals.Get(name)
		raw += weights[name] * sig.RawScore * sig.Confidence
		signalScores[name] = int(math.Round(sig.RawScore * 100))
	}
	score := raw * 100

	flags := resolveFlags(in.Graph, in.Security)
	score, applied := applyOverrides(score, cfg.Overrides, flags)

	riskLevel := model.RiskLevelForScore(score)
	recommendations := buildRecommendations(applied, in.Findings)

	return model.TrustResult{
		FinalScore:      math.Round(score*100) / 100,
		RiskLevel:       riskLevel,
		SignalScores:    signalScores,
		Overrides:       applied,
		Narrative:       narrative(score, riskLevel, applied),
		Recommendations: recommendations,
	}
}

// narrative produces a short, deterministic human-readable summary line.
func narrative(score float64, risk model.RiskLevel, applied []model.AppliedOverride) string {
	if len(applied) == 0 {
		return fmt.Sprintf("trust score %.1f (%s), no overrides applied", score, risk)
	}
	return fmt.Sprintf("trust score %.1f (%s), %d override(s) applied: %s", score, risk, len(applied), applied[0].Name)
}
