package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
	"gopkg.in/yaml.v3"
)

// Load resolves the final Config by layering, lowest to highest
// precedence: built-in defaults -> YAML file at path (if present) ->
// environment variable overrides. The result is validated before being
// returned; callers should treat it as frozen.
func Load(path string) (*Config, error) {
	cfg := Builtin()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file %s: %w", path, err)
			}
			// ErrConfigNotFound is not fatal: defaults stand alone.
		} else {
			expanded := ExpandEnv(data)
			var overlay Config
			if err := yaml.Unmarshal(expanded, &overlay); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidYAML, path, err)
			}
			cfg = mergeOverlay(cfg, &overlay)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies the well-known override environment variables
// on top of whatever the file/defaults produced.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QUEUE_IPC_MODE"); v != "" {
		cfg.Transport.Mode = v
	}
	if v := os.Getenv("QUEUE_IPC_ROLLOUT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Transport.RolloutFraction = f
		}
	}
	if v := os.Getenv("MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			for tier, b := range cfg.Tiers {
				b.MaxIterations = n
				cfg.Tiers[tier] = b
			}
		}
	}
	if v := os.Getenv("MAX_PAGES_PER_AUDIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			for tier, b := range cfg.Tiers {
				b.MaxPages = n
				cfg.Tiers[tier] = b
			}
		}
	}
	if v := os.Getenv("NIM_CALL_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			for tier, b := range cfg.Tiers {
				b.MaxAICalls = n
				cfg.Tiers[tier] = b
			}
		}
	}
	if v := os.Getenv("CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.ConfidenceThreshold = f
		}
	}

	for i, src := range cfg.OSINT.Sources {
		rpmEnv := strings.ToUpper(src.Name) + "_REQUESTS_PER_MINUTE"
		if v := os.Getenv(rpmEnv); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				cfg.OSINT.Sources[i].RPM = n
			}
		}
	}
}

// SourceEnabled reports whether a source can run: it either requires no
// key, or its key environment variable is set (non-empty).
func SourceEnabled(src SourceConfig) bool {
	if !src.RequiresKey {
		return true
	}
	envName := src.APIKeyEnv
	if envName == "" {
		envName = strings.ToUpper(src.Name) + "_API_KEY"
	}
	return os.Getenv(envName) != ""
}

// BudgetForTier resolves a model.Budget for the given tier.
func (c *Config) BudgetForTier(tier model.Tier) (model.Budget, error) {
	b, ok := c.Tiers[tier]
	if !ok {
		return model.Budget{}, fmt.Errorf("%w: no budget for tier %q", ErrValidationFailed, tier)
	}
	return b, nil
}

// defaultSendTimeout equals the SendTimeout that Builtin sets. Nothing in
// the loader reads it: an overlay cannot unset SendTimeout, because
// mergeOverlay only copies non-zero values.
const defaultSendTimeout = 1 * time.Second
