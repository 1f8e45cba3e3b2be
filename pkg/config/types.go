// Package config loads and validates the layered configuration for an
// audit process: tier budgets, trust-score weight vectors, hard-override
// rules, the OSINT source registry, and transport mode selection.
//
// Layering (lowest to highest precedence): built-in defaults (defaults.go)
// -> YAML config file -> environment variable overrides. Config is loaded
// once via Load, validated, and passed by reference — it is never mutated
// after Load returns.
package config

import (
	"time"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// Config is the fully resolved, validated configuration for an audit
// process.
type Config struct {
	Tiers               map[model.Tier]model.Budget `yaml:"tiers"`
	Weights              WeightConfig                `yaml:"weights"`
	Overrides            []HardOverrideRule           `yaml:"overrides"`
	OSINT                OSINTConfig                  `yaml:"osint"`
	Transport            TransportConfig              `yaml:"transport"`
	Timeouts             TimeoutConfig                `yaml:"timeouts"`
	ConfidenceThreshold  float64                      `yaml:"confidence_threshold"`
	SecurityModules      []string                     `yaml:"security_modules"`
}

// TimeoutConfig holds the per-phase timeouts: scout is scaled by
// pages_this_iter, graph has its own configured budget, everything else
// inherits the global audit timeout.
type TimeoutConfig struct {
	Global       time.Duration `yaml:"global"`
	ScoutPage    time.Duration `yaml:"scout_page"`
	Graph        time.Duration `yaml:"graph"`
	SourceQuery  time.Duration `yaml:"source_query"`
}

// WeightConfig holds the default signal-weight vector and any site-type
// specific overrides.
type WeightConfig struct {
	Default        map[model.SignalName]float64    `yaml:"default"`
	SiteTypes      map[string]SiteTypeWeightConfig   `yaml:"site_types"`
}

// SiteTypeWeightConfig replaces the default weight vector when the
// detected site type's confidence clears MinConfidence.
type SiteTypeWeightConfig struct {
	MinConfidence float64                        `yaml:"min_confidence"`
	Weights       map[model.SignalName]float64  `yaml:"weights"`
}

// HardOverrideRule is one post-adjustment rule applied, in declared order,
// after the weighted raw score is computed. Exactly one of ClampMax or
// Penalty should be set; Validate rejects a rule with a nil ClampMax and a
// zero Penalty.
type HardOverrideRule struct {
	Name     string   `yaml:"name"`
	Flag     string   `yaml:"flag"` // AuditState hard-override flag this rule reacts to
	ClampMax *float64 `yaml:"clamp_max,omitempty"`
	Penalty  float64  `yaml:"penalty,omitempty"`
	Reason   string   `yaml:"reason"`
}

// TransportConfig controls dual-mode progress-event transport selection.
type TransportConfig struct {
	Mode            string        `yaml:"mode"` // "" | "queue" | "stdout" | "fallback"
	RolloutFraction float64       `yaml:"rollout_fraction"`
	QueueCapacity   int           `yaml:"queue_capacity"`
	SendTimeout     time.Duration `yaml:"send_timeout"`
}

// OSINTConfig holds the fanout engine's source registry and concurrency
// controls.
type OSINTConfig struct {
	Sources              []SourceConfig `yaml:"sources"`
	ParallelismCap        int            `yaml:"parallelism_cap"`
	TierPacingDelay       time.Duration  `yaml:"tier_pacing_delay"`
	SmartFallbackAttempts int            `yaml:"smart_fallback_attempts"`
	HighConfidenceThresh  float64        `yaml:"high_confidence_threshold"`
	BreakerFailureThresh  int            `yaml:"breaker_failure_threshold"`
	BreakerSleepWindow    time.Duration  `yaml:"breaker_sleep_window"`
}

// SourceConfig describes one registered OSINT/CTI source.
type SourceConfig struct {
	Name            string        `yaml:"name"`
	Category        string        `yaml:"category"`
	PriorityTier    int           `yaml:"priority_tier"`
	RPM             int           `yaml:"rpm"`
	RPH             int           `yaml:"rph"`
	RequiresKey     bool          `yaml:"requires_key"`
	APIKeyEnv       string        `yaml:"api_key_env"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	TrustLevel      string        `yaml:"trust_level"` // "high" | "medium" | "low" | "unknown"
	BaseWeight      float64       `yaml:"base_weight"`
	ConfidenceBias  float64       `yaml:"confidence_bias"`
}
