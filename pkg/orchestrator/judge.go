package orchestrator

import "github.com/darkpatternlabs/urlaudit/pkg/model"

// DefaultJudge requests another iteration only when the graph phase hasn't
// produced a confirmed verdict yet and the scout phase surfaced links it
// hasn't investigated — otherwise it concludes with whatever evidence
// exists. Supervisors needing a different pagination policy (e.g. one
// driven by an LLM's own assessment of evidence completeness) inject their
// own JudgeFunc through Deps.Judge.
func DefaultJudge(s *model.AuditState, _ model.TrustResult) (requestMore bool, urls []string) {
	graph := s.GraphEvidenceSnapshot()
	if graph != nil && graph.Confirmed {
		return false, nil
	}
	if !s.HasPendingURLs() {
		return false, nil
	}
	return true, nil
}
