package trust

import (
	"github.com/darkpatternlabs/urlaudit/pkg/config"
	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// resolveFlags collects every hard-override flag currently set anywhere in
// the evidence gathered so far: the two fixed graph-phase flags, plus any
// flag any security module raised.
func resolveFlags(graph *model.GraphEvidence, security map[string]model.SecurityModuleResult) map[string]bool {
	flags := make(map[string]bool)
	if graph != nil {
		flags["phishing_list_hit"] = graph.PhishingListHit
		flags["darknet_marketplace_match"] = graph.DarknetMatch
	}
	for _, result := range security {
		for flag, set := range result.Flags {
			if set {
				flags[flag] = true
			}
		}
	}
	return flags
}

// applyOverrides walks rules in declared order, clamping or penalizing the
// running score for each flag that is set, and returns the adjusted score
// plus the list of overrides that actually fired.
func applyOverrides(score float64, rules []config.HardOverrideRule, flags map[string]bool) (float64, []model.AppliedOverride) {
	var applied []model.AppliedOverride
	for _, rule := range rules {
		if !flags[rule.Flag] {
			continue
		}
		if rule.ClampMax != nil && score > *rule.ClampMax {
			score = *rule.ClampMax
		}
		if rule.Penalty != 0 {
			score -= rule.Penalty
		}
		applied = append(applied, model.AppliedOverride{
			Name:    rule.Name,
			Reason:  rule.Reason,
			Penalty: rule.Penalty,
			Clamp:   rule.ClampMax,
		})
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, applied
}
