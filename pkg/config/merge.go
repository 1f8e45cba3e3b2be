package config

// mergeOverlay layers a partially-populated overlay Config (typically
// decoded from a YAML file that only sets the fields an operator cares
// about) onto base, returning base with overlay's non-zero fields applied.
// This config has a handful of top-level collections, so a hand-written,
// field-by-field overlay is clearer than pulling in a generic deep-merge
// dependency for these replace-or-keep decisions.
func mergeOverlay(base, overlay *Config) *Config {
	merged := *base

	if len(overlay.Tiers) > 0 {
		for tier, budget := range overlay.Tiers {
			merged.Tiers[tier] = budget
		}
	}
	if len(overlay.Weights.Default) > 0 {
		merged.Weights.Default = overlay.Weights.Default
	}
	if len(overlay.Weights.SiteTypes) > 0 {
		for name, w := range overlay.Weights.SiteTypes {
			if merged.Weights.SiteTypes == nil {
				merged.Weights.SiteTypes = make(map[string]SiteTypeWeightConfig)
			}
			merged.Weights.SiteTypes[name] = w
		}
	}
	if len(overlay.Overrides) > 0 {
		merged.Overrides = overlay.Overrides
	}
	if len(overlay.OSINT.Sources) > 0 {
		merged.OSINT.Sources = overlay.OSINT.Sources
	}
	if overlay.OSINT.ParallelismCap > 0 {
		merged.OSINT.ParallelismCap = overlay.OSINT.ParallelismCap
	}
	if overlay.OSINT.TierPacingDelay > 0 {
		merged.OSINT.TierPacingDelay = overlay.OSINT.TierPacingDelay
	}
	if overlay.OSINT.SmartFallbackAttempts > 0 {
		merged.OSINT.SmartFallbackAttempts = overlay.OSINT.SmartFallbackAttempts
	}
	if overlay.OSINT.HighConfidenceThresh > 0 {
		merged.OSINT.HighConfidenceThresh = overlay.OSINT.HighConfidenceThresh
	}
	if overlay.OSINT.BreakerFailureThresh > 0 {
		merged.OSINT.BreakerFailureThresh = overlay.OSINT.BreakerFailureThresh
	}
	if overlay.OSINT.BreakerSleepWindow > 0 {
		merged.OSINT.BreakerSleepWindow = overlay.OSINT.BreakerSleepWindow
	}
	if overlay.Timeouts.Global > 0 {
		merged.Timeouts.Global = overlay.Timeouts.Global
	}
	if overlay.Timeouts.ScoutPage > 0 {
		merged.Timeouts.ScoutPage = overlay.Timeouts.ScoutPage
	}
	if overlay.Timeouts.Graph > 0 {
		merged.Timeouts.Graph = overlay.Timeouts.Graph
	}
	if overlay.Timeouts.SourceQuery > 0 {
		merged.Timeouts.SourceQuery = overlay.Timeouts.SourceQuery
	}
	if overlay.Transport.Mode != "" {
		merged.Transport.Mode = overlay.Transport.Mode
	}
	if overlay.Transport.RolloutFraction > 0 {
		merged.Transport.RolloutFraction = overlay.Transport.RolloutFraction
	}
	if overlay.Transport.QueueCapacity > 0 {
		merged.Transport.QueueCapacity = overlay.Transport.QueueCapacity
	}
	if overlay.Transport.SendTimeout > 0 {
		merged.Transport.SendTimeout = overlay.Transport.SendTimeout
	}
	if overlay.ConfidenceThreshold > 0 {
		merged.ConfidenceThreshold = overlay.ConfidenceThreshold
	}
	if len(overlay.SecurityModules) > 0 {
		merged.SecurityModules = overlay.SecurityModules
	}

	return &merged
}
