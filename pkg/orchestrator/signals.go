package orchestrator

import (
	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// deriveSignals turns accumulated evidence into the six named sub-signals
// the trust engine scores against. Each signal has a defined [0,1] range
// but deriving its raw_score/confidence from raw evidence is a deterministic
// heuristic over what each phase
// actually recorded, documented in the design ledger.
func deriveSignals(state *model.AuditState) model.SignalSet {
	findings := state.VisionFindingsSnapshot()
	security := state.SecurityEvidenceSnapshot()
	graph := state.GraphEvidenceSnapshot()
	scoutEv := state.ScoutEvidenceSnapshot()

	signals := make(model.SignalSet, len(model.SignalOrder))
	signals[model.SignalVisual] = visualSignal(findings)
	signals[model.SignalStructural] = structuralSignal(findings)
	signals[model.SignalTemporal] = temporalSignal(scoutEv, graph)
	signals[model.SignalGraph] = graphSignal(graph)
	signals[model.SignalMeta] = metaSignal(security)
	signals[model.SignalSecurity] = securitySignal(security)
	return signals
}

// severityPenalty weights a finding's contribution to its signal's raw
// score by how bad it is.
func severityPenalty(sev model.Severity) float64 {
	switch sev {
	case model.SeverityCritical:
		return 0.4
	case model.SeverityHigh:
		return 0.25
	case model.SeverityMedium:
		return 0.12
	default:
		return 0.05
	}
}

func findingsIn(findings []model.Finding, categories ...model.Category) []model.Finding {
	want := make(map[model.Category]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}
	var out []model.Finding
	for _, f := range findings {
		if want[f.Category] {
			out = append(out, f)
		}
	}
	return out
}

func scoreFromFindings(matching []model.Finding) (raw, confidence float64) {
	if len(matching) == 0 {
		return 1.0, 0.3 // no adverse evidence; low confidence since absence isn't proof
	}
	penalty := 0.0
	confSum := 0.0
	for _, f := range matching {
		penalty += severityPenalty(f.Severity) * f.Confidence
		confSum += f.Confidence
	}
	raw = clamp01(1.0 - penalty)
	confidence = clamp01(confSum / float64(len(matching)))
	return raw, confidence
}

func visualSignal(findings []model.Finding) model.SubSignal {
	matching := findingsIn(findings, model.CategoryUrgency, model.CategorySocialProof)
	raw, conf := scoreFromFindings(matching)
	return model.SubSignal{Name: model.SignalVisual, RawScore: raw, Confidence: conf, EvidenceCount: len(matching)}
}

func structuralSignal(findings []model.Finding) model.SubSignal {
	matching := findingsIn(findings, model.CategoryObstruction, model.CategorySneaking, model.CategoryForcedAction)
	raw, conf := scoreFromFindings(matching)
	return model.SubSignal{Name: model.SignalStructural, RawScore: raw, Confidence: conf, EvidenceCount: len(matching)}
}

func temporalSignal(scoutEv []model.ScoutEvidence, graph *model.GraphEvidence) model.SubSignal {
	if graph == nil {
		return model.SubSignal{Name: model.SignalTemporal, RawScore: 0.5, Confidence: 0.1}
	}
	raw := 1.0 - graph.MaliciousRatio
	conf := 0.4
	if graph.Confirmed {
		conf = 0.7
	}
	return model.SubSignal{Name: model.SignalTemporal, RawScore: clamp01(raw), Confidence: conf, EvidenceCount: len(scoutEv)}
}

func graphSignal(graph *model.GraphEvidence) model.SubSignal {
	if graph == nil {
		return model.SubSignal{Name: model.SignalGraph, RawScore: 0.5, Confidence: 0}
	}
	raw := 1.0 - graph.MaliciousRatio
	if graph.PhishingListHit || graph.DarknetMatch {
		raw = 0
	}
	return model.SubSignal{
		Name:          model.SignalGraph,
		RawScore:      clamp01(raw),
		Confidence:    clamp01(graph.OverallConfidence),
		EvidenceCount: len(graph.Verifications),
	}
}

func metaSignal(security map[string]model.SecurityModuleResult) model.SubSignal {
	if len(security) == 0 {
		return model.SubSignal{Name: model.SignalMeta, RawScore: 0.5, Confidence: 0.1}
	}
	var rawSum, confSum float64
	for _, r := range security {
		if r.Passed {
			rawSum += 1.0
		}
		confSum += r.Confidence
	}
	n := float64(len(security))
	return model.SubSignal{
		Name:          model.SignalMeta,
		RawScore:      clamp01(rawSum / n),
		Confidence:    clamp01(confSum / n),
		EvidenceCount: len(security),
	}
}

func securitySignal(security map[string]model.SecurityModuleResult) model.SubSignal {
	if len(security) == 0 {
		return model.SubSignal{Name: model.SignalSecurity, RawScore: 0.5, Confidence: 0.1}
	}
	var rawSum, confSum float64
	for _, r := range security {
		if r.Passed {
			rawSum += r.Confidence
		}
		confSum += r.Confidence
	}
	n := float64(len(security))
	return model.SubSignal{
		Name:          model.SignalSecurity,
		RawScore:      clamp01(rawSum / n),
		Confidence:    clamp01(confSum / n),
		EvidenceCount: len(security),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
