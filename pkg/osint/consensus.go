package osint

import (
	"sort"

	"github.com/darkpatternlabs/urlaudit/pkg/config"
	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// Resolve aggregates per-source verification results into GraphEvidence:
// a weighted malicious_ratio (each vote is BaseWeight x Confidence, with
// ConfidenceBias also applied to malicious votes only),
// disagreements preserved as ConflictRecords rather than collapsed, and an
// overall verdict/confidence pair. The result is independent of the order
// results arrive in.
func Resolve(entityName string, results []model.VerificationResult, weights map[string]config.SourceConfig, thresholds Thresholds) model.GraphEvidence {
	ev := model.GraphEvidence{
		EntityName:    entityName,
		Verifications: append([]model.VerificationResult(nil), results...),
	}
	sortVerifications(ev.Verifications)

	var maliciousSum, cleanSum float64
	for _, res := range results {
		base, bias := sourceWeight(res.Source, weights)
		switch res.Verdict {
		case "malicious":
			maliciousSum += base * res.Confidence * bias
		case "clean":
			cleanSum += base * res.Confidence
		}
	}
	if maliciousSum+cleanSum > 0 {
		ev.MaliciousRatio = maliciousSum / (maliciousSum + cleanSum)
	}

	ev.Conflicts = buildConflicts(results)

	ev.OverallVerdict, ev.OverallConfidence = overallVerdict(ev.MaliciousRatio, results, thresholds)
	ev.Confirmed = ev.OverallVerdict != "unknown" && isConfirmed(results, ev.OverallVerdict, thresholds)
	ev.PhishingListHit = anySourceFlags(results, "phishtank", "malicious")
	ev.DarknetMatch = anySourceFlags(results, "darknet_feed", "malicious")

	return ev
}

// Thresholds tunes verdict-bucketing at the margins; zero values fall back
// to the package defaults (>=0.5 malicious, <=0.2 clean, else unknown).
type Thresholds struct {
	MaliciousAt      float64
	CleanAt          float64
	HighConfidenceAt float64
}

func (t Thresholds) highConfidenceAt() float64 {
	if t.HighConfidenceAt == 0 {
		return 0.85
	}
	return t.HighConfidenceAt
}

func (t Thresholds) maliciousAt() float64 {
	if t.MaliciousAt == 0 {
		return 0.5
	}
	return t.MaliciousAt
}

func (t Thresholds) cleanAt() float64 {
	if t.CleanAt == 0 {
		return 0.2
	}
	return t.CleanAt
}

// overallVerdict buckets ratio against the configured thresholds and
// derives OverallConfidence from that same ratio — how lopsided the
// consensus is — rather than from the raw per-source Confidence values,
// which measure each source's self-reported certainty, not agreement.
func overallVerdict(ratio float64, results []model.VerificationResult, t Thresholds) (string, float64) {
	if len(results) == 0 {
		return "unknown", 0
	}

	switch {
	case ratio >= t.maliciousAt():
		return "malicious", ratio * 100
	case ratio <= t.cleanAt():
		return "clean", (1 - ratio) * 100
	default:
		return "unknown", ratio * 100
	}
}

// buildConflicts pairs every malicious verdict from one source against
// every clean verdict from another, preserving each disagreement rather
// than averaging it away.
func buildConflicts(results []model.VerificationResult) []model.ConflictRecord {
	var malicious, clean []model.VerificationResult
	for _, r := range results {
		switch r.Verdict {
		case "malicious":
			malicious = append(malicious, r)
		case "clean":
			clean = append(clean, r)
		}
	}
	if len(malicious) == 0 || len(clean) == 0 {
		return nil
	}
	var conflicts []model.ConflictRecord
	for _, m := range malicious {
		for _, c := range clean {
			conflicts = append(conflicts, model.ConflictRecord{
				MaliciousSource: m.Source,
				CleanSource:     c.Source,
				Explanation:     m.Source + " flagged malicious (" + m.Detail + ") while " + c.Source + " reported clean (" + c.Detail + ")",
			})
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].MaliciousSource != conflicts[j].MaliciousSource {
			return conflicts[i].MaliciousSource < conflicts[j].MaliciousSource
		}
		return conflicts[i].CleanSource < conflicts[j].CleanSource
	})
	return conflicts
}

// isConfirmed applies the three confirmation rules: (a) >= 3 sources in
// agreement, (b) >= 2 high-trust sources in agreement, or (c) exactly one
// high-trust source with confidence >= the high-confidence threshold.
func isConfirmed(results []model.VerificationResult, verdict string, t Thresholds) bool {
	var agreeing, highTrustAgreeing []model.VerificationResult
	for _, r := range results {
		if r.Verdict != verdict {
			continue
		}
		agreeing = append(agreeing, r)
		if r.TrustLevel == "high" {
			highTrustAgreeing = append(highTrustAgreeing, r)
		}
	}

	if len(agreeing) >= 3 {
		return true
	}
	if len(highTrustAgreeing) >= 2 {
		return true
	}
	if len(highTrustAgreeing) == 1 && highTrustAgreeing[0].Confidence >= t.highConfidenceAt() {
		return true
	}
	return false
}

func anySourceFlags(results []model.VerificationResult, source, verdict string) bool {
	for _, r := range results {
		if r.Source == source && r.Verdict == verdict {
			return true
		}
	}
	return false
}

func sourceWeight(source string, weights map[string]config.SourceConfig) (base, bias float64) {
	cfg, ok := weights[source]
	if !ok || cfg.BaseWeight == 0 {
		base = 1.0
	} else {
		base = cfg.BaseWeight
	}
	bias = cfg.ConfidenceBias
	if bias == 0 {
		bias = 1.0
	}
	return base, bias
}

// sortVerifications orders verifications deterministically by source name
// so GraphEvidence.Verifications is stable regardless of fan-out arrival
// order.
func sortVerifications(vs []model.VerificationResult) {
	sort.Slice(vs, func(i, j int) bool { return vs[i].Source < vs[j].Source })
}
