// Package trust computes the single weighted TrustResult from a finished
// audit's evidence: signal weighting, hard overrides, risk bucketing, and
// a deterministic recommendation list.
package trust

import (
	"github.com/darkpatternlabs/urlaudit/pkg/config"
	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// effectiveWeights picks the weight vector to use: the default vector,
// unless the detected site type's confidence clears the configured
// site-type-specific threshold, in which case that vector replaces it
// wholesale — never blended.
func effectiveWeights(w config.WeightConfig, siteType *model.SiteType) map[model.SignalName]float64 {
	if siteType != nil {
		if st, ok := w.SiteTypes[siteType.Label]; ok && siteType.Confidence >= st.MinConfidence {
			return st.Weights
		}
	}
	return w.Default
}

// normalizeWeights scales weights so they sum to 1, in SignalOrder so the
// summation itself is deterministic regardless of map iteration.
func normalizeWeights(weights map[model.SignalName]float64) map[model.SignalName]float64 {
	var total float64
	for _, name := range model.SignalOrder {
		total += weights[name]
	}
	out := make(map[model.SignalName]float64, len(model.SignalOrder))
	if total <= 0 {
		return out
	}
	for _, name := range model.SignalOrder {
		out[name] = weights[name] / total
	}
	return out
}
