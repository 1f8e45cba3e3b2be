package trust

import (
	"fmt"
	"sort"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// buildRecommendations scans applied overrides and high-severity findings
// and orders the result deterministically: overrides first (in the order
// they fired), then findings sorted by severity (highest first) and, for
// ties, by category id.
func buildRecommendations(overrides []model.AppliedOverride, findings []model.Finding) []string {
	var recs []string
	for _, o := range overrides {
		recs = append(recs, fmt.Sprintf("%s: %s", o.Name, o.Reason))
	}

	notable := make([]model.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Severity == model.SeverityHigh || f.Severity == model.SeverityCritical {
			notable = append(notable, f)
		}
	}
	sort.SliceStable(notable, func(i, j int) bool {
		ri, rj := model.SeverityRank(notable[i].Severity), model.SeverityRank(notable[j].Severity)
		if ri != rj {
			return ri > rj
		}
		return model.CategoryID(notable[i].Category) < model.CategoryID(notable[j].Category)
	})
	for _, f := range notable {
		recs = append(recs, fmt.Sprintf("%s (%s): %s", f.Category, f.Severity, f.Description))
	}
	return recs
}
