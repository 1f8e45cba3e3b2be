package osint

import (
	"context"
	"sort"
	"time"

	"github.com/darkpatternlabs/urlaudit/pkg/config"
	"github.com/darkpatternlabs/urlaudit/pkg/model"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// QueryAll fans a query out across every registered source that is
// enabled (per config.SourceEnabled) in priority-tier order, bounded to
// cfg.ParallelismCap concurrent in-flight queries at any moment.
// Sources within a tier have no ordering guarantee
// among themselves; tiers run one after another with TierPacingDelay
// between them so low-priority/free sources aren't starved by
// higher-priority ones holding every semaphore slot.
//
// A source that fails is retried against up to cfg.SmartFallbackAttempts
// alternate sources in the same category before being given up on.
func (r *Registry) QueryAll(ctx context.Context, sources []config.SourceConfig, target string, cfg config.OSINTConfig, clock Clock) ([]model.VerificationResult, []model.ErrorRecord) {
	byTier := groupByTier(sources)

	var results []model.VerificationResult
	var errs []model.ErrorRecord

	for _, tier := range sortedTiers(byTier) {
		tierResults, tierErrs := r.queryTier(ctx, byTier[tier], target, cfg, clock)
		results = append(results, tierResults...)
		errs = append(errs, tierErrs...)

		if cfg.TierPacingDelay > 0 {
			select {
			case <-time.After(cfg.TierPacingDelay):
			case <-ctx.Done():
				return results, errs
			}
		}
	}
	return results, errs
}

func (r *Registry) queryTier(ctx context.Context, sources []config.SourceConfig, target string, cfg config.OSINTConfig, clock Clock) ([]model.VerificationResult, []model.ErrorRecord) {
	sem := semaphore.NewWeighted(int64(maxInt(cfg.ParallelismCap, 1)))
	g, gctx := errgroup.WithContext(ctx)

	type outcome struct {
		source string
		result model.VerificationResult
		err    error
	}
	outcomes := make([]outcome, len(sources))

	for i, src := range sources {
		if !config.SourceEnabled(src) {
			outcomes[i] = outcome{source: src.Name, err: model.ErrInput}
			continue
		}
		i, src := i, src
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil // context cancelled; surfaced by errgroup's own ctx
			}
			defer sem.Release(1)

			result, err := r.queryWithFallback(gctx, src, target, cfg, clock)
			outcomes[i] = outcome{source: src.Name, result: result, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var results []model.VerificationResult
	var errs []model.ErrorRecord
	now := clock()
	if now.IsZero() {
		now = time.Now()
	}
	for _, o := range outcomes {
		if o.err != nil {
			if o.err == model.ErrInput {
				continue // source disabled, not a failure worth recording
			}
			errs = append(errs, model.NewErrorRecord("graph", o.source, o.err, now.Unix()))
			continue
		}
		results = append(results, o.result)
	}
	return results, errs
}

// queryWithFallback tries src, then up to SmartFallbackAttempts alternate
// sources in the same category if it fails.
func (r *Registry) queryWithFallback(ctx context.Context, src config.SourceConfig, target string, cfg config.OSINTConfig, clock Clock) (model.VerificationResult, error) {
	result, err := r.QueryOne(ctx, src.Name, target, clock)
	if err == nil {
		return result, nil
	}

	tried := []string{src.Name}
	for attempt := 0; attempt < cfg.SmartFallbackAttempts; attempt++ {
		alternates := r.ByCategory(src.Category, tried)
		if len(alternates) == 0 {
			break
		}
		sort.Strings(alternates)
		alt := alternates[0]
		result, altErr := r.QueryOne(ctx, alt, target, clock)
		if altErr == nil {
			return result, nil
		}
		tried = append(tried, alt)
		err = altErr
	}
	return model.VerificationResult{}, err
}

func groupByTier(sources []config.SourceConfig) map[int][]config.SourceConfig {
	m := make(map[int][]config.SourceConfig)
	for _, s := range sources {
		m[s.PriorityTier] = append(m[s.PriorityTier], s)
	}
	return m
}

func sortedTiers(m map[int][]config.SourceConfig) []int {
	tiers := make([]int, 0, len(m))
	for t := range m {
		tiers = append(tiers, t)
	}
	sort.Ints(tiers)
	return tiers
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
