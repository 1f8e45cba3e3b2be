package osint

import (
	"context"
	"fmt"
	"time"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// Clock lets tests supply a deterministic time source for quota/cache TTL
// decisions instead of time.Now.
type Clock func() time.Time

// QueryOne runs the per-source query algorithm: cache lookup, then breaker
// check, then quota check, then the actual call, recording the outcome on
// both the breaker and the cache.
func (r *Registry) QueryOne(ctx context.Context, sourceName, target string, clock Clock) (model.VerificationResult, error) {
	if clock == nil {
		clock = time.Now
	}
	src, ok := r.get(sourceName)
	if !ok {
		return model.VerificationResult{}, fmt.Errorf("%w: unknown source %q", model.ErrInput, sourceName)
	}

	now := clock()
	key := Key(sourceName, target)
	if cached, ok := r.cache.Get(key, now); ok {
		return cached, nil
	}

	if !src.breaker.Allow() {
		return model.VerificationResult{}, &model.SourceError{Source: sourceName, Cause: model.CauseTransport, Err: model.ErrCircuitOpen}
	}

	if !src.quota.Allow(now) {
		return model.VerificationResult{}, &model.SourceError{Source: sourceName, Cause: model.CauseTransport, Err: model.ErrRateLimited}
	}

	raw, err := src.querier.Query(ctx, target)
	if err != nil {
		src.breaker.RecordFailure()
		cause := model.CauseUpstream
		if ctx.Err() != nil {
			cause = model.CauseTimeout
		}
		return model.VerificationResult{}, &model.SourceError{Source: sourceName, Cause: cause, Err: fmt.Errorf("%w: %v", model.ErrUpstream, err)}
	}
	src.breaker.RecordSuccess()

	result := model.VerificationResult{
		Source:     sourceName,
		Verdict:    raw.Verdict,
		Confidence: raw.Confidence,
		TrustLevel: src.cfg.TrustLevel,
		Detail:     raw.Detail,
	}
	r.cache.Put(key, result, src.cfg.CacheTTL, now)
	return result, nil
}
