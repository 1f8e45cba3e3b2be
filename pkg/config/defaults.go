package config

import (
	"time"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// Builtin returns the system's built-in default configuration. Load starts
// from this, then applies the config file and environment overrides on
// top.
func Builtin() *Config {
	clampPhishing := 20.0
	clampDarknet := 15.0

	return &Config{
		Tiers: map[model.Tier]model.Budget{
			model.TierQuick:    {MaxIterations: 1, MaxPages: 1, MaxAICalls: 3},
			model.TierStandard: {MaxIterations: 2, MaxPages: 5, MaxAICalls: 8},
			model.TierDeep:     {MaxIterations: 3, MaxPages: 10, MaxAICalls: 20},
		},
		Weights: WeightConfig{
			Default: map[model.SignalName]float64{
				model.SignalVisual:     0.25,
				model.SignalStructural: 0.20,
				model.SignalTemporal:   0.15,
				model.SignalGraph:      0.20,
				model.SignalMeta:       0.10,
				model.SignalSecurity:   0.10,
			},
			SiteTypes: map[string]SiteTypeWeightConfig{
				"ecommerce": {
					MinConfidence: 0.6,
					Weights: map[model.SignalName]float64{
						model.SignalVisual:     0.30,
						model.SignalStructural: 0.25,
						model.SignalTemporal:   0.15,
						model.SignalGraph:      0.15,
						model.SignalMeta:       0.05,
						model.SignalSecurity:   0.10,
					},
				},
				"saas": {
					MinConfidence: 0.6,
					Weights: map[model.SignalName]float64{
						model.SignalVisual:     0.15,
						model.SignalStructural: 0.15,
						model.SignalTemporal:   0.10,
						model.SignalGraph:      0.25,
						model.SignalMeta:       0.10,
						model.SignalSecurity:   0.25,
					},
				},
				"content_publisher": {
					MinConfidence: 0.6,
					Weights: map[model.SignalName]float64{
						model.SignalVisual:     0.20,
						model.SignalStructural: 0.15,
						model.SignalTemporal:   0.25,
						model.SignalGraph:      0.20,
						model.SignalMeta:       0.15,
						model.SignalSecurity:   0.05,
					},
				},
			},
		},
		Overrides: []HardOverrideRule{
			{
				Name:     "phishing_list_hit",
				Flag:     "phishing_list_hit",
				ClampMax: &clampPhishing,
				Reason:   "target domain appears on a known phishing list",
			},
			{
				Name:     "darknet_marketplace_match",
				Flag:     "darknet_marketplace_match",
				ClampMax: &clampDarknet,
				Reason:   "target domain or entity keywords match a dark-market feed entry",
			},
			{
				Name:    "ssl_absent",
				Flag:    "ssl_absent",
				Penalty: 15,
				Reason:  "site does not serve over TLS",
			},
		},
		OSINT: OSINTConfig{
			Sources:               DefaultSources(),
			ParallelismCap:        4,
			TierPacingDelay:       250 * time.Millisecond,
			SmartFallbackAttempts: 2,
			HighConfidenceThresh:  0.85,
			BreakerFailureThresh:  3,
			BreakerSleepWindow:    60 * time.Second,
		},
		Transport: TransportConfig{
			Mode:            "",
			RolloutFraction: 0.10,
			QueueCapacity:   1000,
			SendTimeout:     1 * time.Second,
		},
		Timeouts: TimeoutConfig{
			Global:      60 * time.Second,
			ScoutPage:   10 * time.Second,
			Graph:       20 * time.Second,
			SourceQuery: 5 * time.Second,
		},
		ConfidenceThreshold: 0.3,
		SecurityModules:     []string{"headers", "phishing_list", "form_validation", "tls"},
	}
}

// DefaultSources returns the built-in OSINT source registry. Credentialed
// sources are disabled (RequiresKey with no key present) until the
// supervisor sets the corresponding <SOURCE>_API_KEY environment variable.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name: "dns_lookup", Category: "dns", PriorityTier: 1,
			RPM: 120, RPH: 2000, RequiresKey: false,
			CacheTTL: 30 * time.Minute, TrustLevel: "high",
			BaseWeight: 0.9, ConfidenceBias: 1.0,
		},
		{
			Name: "whois_lookup", Category: "whois", PriorityTier: 1,
			RPM: 60, RPH: 1000, RequiresKey: false,
			CacheTTL: 6 * time.Hour, TrustLevel: "high",
			BaseWeight: 0.85, ConfidenceBias: 1.0,
		},
		{
			Name: "ssl_cert_check", Category: "ssl", PriorityTier: 1,
			RPM: 60, RPH: 1000, RequiresKey: false,
			CacheTTL: 1 * time.Hour, TrustLevel: "high",
			BaseWeight: 0.85, ConfidenceBias: 1.0,
		},
		{
			Name: "phishtank", Category: "threat_intel", PriorityTier: 2,
			RPM: 20, RPH: 300, RequiresKey: true, APIKeyEnv: "PHISHTANK_API_KEY",
			CacheTTL: 15 * time.Minute, TrustLevel: "high",
			BaseWeight: 0.95, ConfidenceBias: 1.2,
		},
		{
			Name: "virustotal", Category: "threat_intel", PriorityTier: 2,
			RPM: 4, RPH: 500, RequiresKey: true, APIKeyEnv: "VIRUSTOTAL_API_KEY",
			CacheTTL: 1 * time.Hour, TrustLevel: "high",
			BaseWeight: 0.9, ConfidenceBias: 1.15,
		},
		{
			Name: "urlhaus", Category: "threat_intel", PriorityTier: 2,
			RPM: 30, RPH: 1000, RequiresKey: false,
			CacheTTL: 15 * time.Minute, TrustLevel: "medium",
			BaseWeight: 0.7, ConfidenceBias: 1.1,
		},
		{
			Name: "reputation_blocklist", Category: "reputation", PriorityTier: 3,
			RPM: 30, RPH: 600, RequiresKey: false,
			CacheTTL: 30 * time.Minute, TrustLevel: "medium",
			BaseWeight: 0.6, ConfidenceBias: 1.0,
		},
		{
			Name: "social_mentions", Category: "social", PriorityTier: 3,
			RPM: 15, RPH: 200, RequiresKey: true, APIKeyEnv: "SOCIAL_API_KEY",
			CacheTTL: 30 * time.Minute, TrustLevel: "low",
			BaseWeight: 0.4, ConfidenceBias: 0.9,
		},
		{
			Name: "darknet_feed", Category: "darknet-feed", PriorityTier: 4,
			RPM: 10, RPH: 100, RequiresKey: false,
			CacheTTL: 24 * time.Hour, TrustLevel: "medium",
			BaseWeight: 0.6, ConfidenceBias: 1.0,
		},
	}
}
