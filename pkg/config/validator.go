package config

import (
	"fmt"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// Validate checks the fully-merged configuration for internal consistency.
// It returns the first ValidationError found, wrapped in ErrValidationFailed.
func (c *Config) Validate() error {
	for _, tier := range []model.Tier{model.TierQuick, model.TierStandard, model.TierDeep} {
		b, ok := c.Tiers[tier]
		if !ok {
			return wrap(&ValidationError{Component: "tier", ID: string(tier), Err: fmt.Errorf("no budget configured")})
		}
		if b.MaxIterations < 1 || b.MaxPages < 1 || b.MaxAICalls < 1 {
			return wrap(&ValidationError{Component: "tier", ID: string(tier), Field: "budget", Err: fmt.Errorf("all budget fields must be >= 1")})
		}
	}

	if err := validateWeights("default", c.Weights.Default); err != nil {
		return err
	}
	for name, st := range c.Weights.SiteTypes {
		if st.MinConfidence < 0 || st.MinConfidence > 1 {
			return wrap(&ValidationError{Component: "site_type_weights", ID: name, Field: "min_confidence", Err: fmt.Errorf("must be in [0,1]")})
		}
		if err := validateWeights(name, st.Weights); err != nil {
			return err
		}
	}

	names := make(map[string]bool, len(c.Overrides))
	for _, o := range c.Overrides {
		if o.Name == "" {
			return wrap(&ValidationError{Component: "override", ID: "", Err: fmt.Errorf("name is required")})
		}
		if names[o.Name] {
			return wrap(&ValidationError{Component: "override", ID: o.Name, Err: fmt.Errorf("duplicate override name")})
		}
		names[o.Name] = true
		if o.ClampMax == nil && o.Penalty == 0 {
			return wrap(&ValidationError{Component: "override", ID: o.Name, Err: fmt.Errorf("must set clamp_max or a nonzero penalty")})
		}
	}

	if c.OSINT.ParallelismCap < 1 {
		return wrap(&ValidationError{Component: "osint", ID: "parallelism_cap", Err: fmt.Errorf("must be >= 1")})
	}
	sourceNames := make(map[string]bool, len(c.OSINT.Sources))
	for _, src := range c.OSINT.Sources {
		if src.Name == "" {
			return wrap(&ValidationError{Component: "osint_source", ID: "", Err: fmt.Errorf("name is required")})
		}
		if sourceNames[src.Name] {
			return wrap(&ValidationError{Component: "osint_source", ID: src.Name, Err: fmt.Errorf("duplicate source name")})
		}
		sourceNames[src.Name] = true
		if src.PriorityTier < 1 || src.PriorityTier > 4 {
			return wrap(&ValidationError{Component: "osint_source", ID: src.Name, Field: "priority_tier", Err: fmt.Errorf("must be in [1,4]")})
		}
		if src.RPM < 1 || src.RPH < 1 {
			return wrap(&ValidationError{Component: "osint_source", ID: src.Name, Field: "rate_limit", Err: fmt.Errorf("rpm and rph must be >= 1")})
		}
		switch src.TrustLevel {
		case "high", "medium", "low", "unknown":
		default:
			return wrap(&ValidationError{Component: "osint_source", ID: src.Name, Field: "trust_level", Err: fmt.Errorf("unknown trust level %q", src.TrustLevel)})
		}
	}

	switch c.Transport.Mode {
	case "", "queue", "stdout", "fallback":
	default:
		return wrap(&ValidationError{Component: "transport", ID: "mode", Err: fmt.Errorf("unknown mode %q", c.Transport.Mode)})
	}
	if c.Transport.RolloutFraction < 0 || c.Transport.RolloutFraction > 1 {
		return wrap(&ValidationError{Component: "transport", ID: "rollout_fraction", Err: fmt.Errorf("must be in [0,1]")})
	}

	if c.Timeouts.Global <= 0 || c.Timeouts.ScoutPage <= 0 || c.Timeouts.Graph <= 0 {
		return wrap(&ValidationError{Component: "timeouts", ID: "", Err: fmt.Errorf("global, scout_page, and graph timeouts must be > 0")})
	}

	return nil
}

func validateWeights(id string, weights map[model.SignalName]float64) error {
	if len(weights) == 0 {
		return wrap(&ValidationError{Component: "weights", ID: id, Err: fmt.Errorf("must not be empty")})
	}
	for _, name := range model.SignalOrder {
		if _, ok := weights[name]; !ok {
			return wrap(&ValidationError{Component: "weights", ID: id, Field: string(name), Err: fmt.Errorf("missing weight for signal")})
		}
	}
	return nil
}

func wrap(ve *ValidationError) error {
	return fmt.Errorf("%w: %w", ErrValidationFailed, ve)
}
