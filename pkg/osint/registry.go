package osint

import (
	"context"
	"sync"
	"time"

	"github.com/darkpatternlabs/urlaudit/pkg/config"
)

// Querier performs the actual lookup against one external source. The
// core module only needs this shape — concrete implementations (real HTTP
// clients to PhishTank, VirusTotal, WHOIS, etc.) live outside this
// package, the same boundary-collaborator treatment Scout and Vision get.
type Querier interface {
	Query(ctx context.Context, target string) (Result, error)
}

// Result is one source's raw answer before it's folded into a
// model.VerificationResult by the registry (which attaches the source name
// and the trust level from the source's config).
type Result struct {
	Verdict    string // "malicious" | "clean" | "unknown"
	Confidence float64
	Detail     string
}

// registeredSource bundles a source's config with its independent quota
// tracker, circuit breaker, and querier implementation.
type registeredSource struct {
	cfg     config.SourceConfig
	querier Querier
	quota   *QuotaTracker
	breaker *CircuitBreaker
}

// Registry holds every configured OSINT source plus the shared cache.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*registeredSource
	cache   *Cache
}

// NewRegistry builds an empty registry sharing the given cache (nil
// creates a private one, scoped to the registry rather than per-audit).
func NewRegistry(cache *Cache) *Registry {
	if cache == nil {
		cache = NewCache()
	}
	return &Registry{sources: make(map[string]*registeredSource), cache: cache}
}

// Register adds a source with its own quota tracker and breaker, built
// from cfg. breakerFailureThreshold and breakerSleepWindow tune the
// breaker independent of the source's rate-limit config.
func (r *Registry) Register(cfg config.SourceConfig, q Querier, breakerFailureThreshold int, breakerSleepWindow time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[cfg.Name] = &registeredSource{
		cfg:     cfg,
		querier: q,
		quota:   NewQuotaTracker(cfg.RPM, cfg.RPH),
		breaker: NewCircuitBreaker(breakerFailureThreshold, breakerSleepWindow),
	}
}

// Sources returns the names of every registered source. Iteration order
// is not guaranteed; callers needing deterministic order should sort.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	return names
}

// ByTier returns registered source names whose PriorityTier matches tier.
func (r *Registry) ByTier(tier int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, s := range r.sources {
		if s.cfg.PriorityTier == tier {
			names = append(names, name)
		}
	}
	return names
}

// ByCategory returns registered source names sharing the given category,
// excluding every name in excluding. Used by the smart-fallback path to
// find an alternate source among those not yet tried.
func (r *Registry) ByCategory(category string, excluding []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	skip := make(map[string]bool, len(excluding))
	for _, name := range excluding {
		skip[name] = true
	}
	var names []string
	for name, s := range r.sources {
		if s.cfg.Category == category && !skip[name] {
			names = append(names, name)
		}
	}
	return names
}

func (r *Registry) get(name string) (*registeredSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[name]
	return s, ok
}
