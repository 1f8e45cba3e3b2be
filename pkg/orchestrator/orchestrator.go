// Package orchestrator drives one audit through its fixed phase sequence:
// init -> scout -> security -> vision -> graph -> judge, looping back to
// scout while the judge requests more pages and the budget
// allows it, otherwise concluding or forcing a verdict from whatever
// evidence exists. It owns no evidence-gathering logic of its own — scout,
// vision, security, and OSINT are all boundary collaborators injected
// through Deps.
package orchestrator

import (
	"context"
	"sync"

	"github.com/darkpatternlabs/urlaudit/pkg/config"
	"github.com/darkpatternlabs/urlaudit/pkg/model"
	"github.com/darkpatternlabs/urlaudit/pkg/osint"
	"github.com/darkpatternlabs/urlaudit/pkg/scout"
	"github.com/darkpatternlabs/urlaudit/pkg/security"
	"github.com/darkpatternlabs/urlaudit/pkg/vision"
)

// Emitter is the subset of pkg/transport.Transport the orchestrator needs,
// kept narrow so tests can inject a fake without building a real Transport.
type Emitter interface {
	Emit(ev model.ProgressEvent) error
}

// JudgeFunc decides, from the trust result computed so far, whether the
// audit should run another scout/security/vision/graph pass. The zero
// value is never used directly — Deps.Judge defaults to DefaultJudge.
type JudgeFunc func(s *model.AuditState, result model.TrustResult) (requestMore bool, urls []string)

// Deps bundles every collaborator the orchestrator needs. All fields are
// required except Judge and Clock, which New defaults to DefaultJudge and
// model.RealClock.
type Deps struct {
	Config   *config.Config
	Scout    scout.Scouter
	Vision   vision.Visioner
	Security []security.Analyzer
	OSINT    *osint.Registry
	Transport Emitter
	Clock    model.Clock
	Judge    JudgeFunc
}

// Options configures a single Run call.
type Options struct {
	VerdictMode     model.VerdictMode
	SecurityModules []string
}

// Orchestrator runs audits against a fixed Deps bundle. One Orchestrator
// may run many audits sequentially; Cancel affects whichever Run call is
// currently in flight.
type Orchestrator struct {
	deps Deps

	mu        sync.Mutex
	cancelled bool
}

// New builds an Orchestrator, filling in defaults for any optional Deps
// fields left zero.
func New(deps Deps) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = model.RealClock
	}
	if deps.Judge == nil {
		deps.Judge = DefaultJudge
	}
	return &Orchestrator{deps: deps}
}

// Cancel requests cancellation of the in-flight Run call. It is safe to
// call from any goroutine, any number of times.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelled = true
}

func (o *Orchestrator) isCancelled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cancelled
}

// Run drives one audit from init to a terminal state, emitting progress
// events throughout and returning the final model.FinalResult. The error
// return is non-nil only for a fatal, pre-loop condition (budget resolution
// failure); mid-audit failures are recorded on AuditState.Errors and
// surfaced through force_verdict instead.
func (o *Orchestrator) Run(ctx context.Context, auditID, targetURL string, tier model.Tier, opts Options) (*model.FinalResult, error) {
	start := o.deps.Clock()

	budget, ok := o.deps.Config.Tiers[tier]
	if !ok {
		return nil, model.ErrInput
	}
	state := model.New(auditID, targetURL, tier, budget)

	runner := security.NewRunner(o.deps.Security, opts.SecurityModules)

	o.emit(state, model.EventPhaseStart, model.PhaseInit, 0, "audit starting", map[string]string{"url": targetURL, "tier": string(tier)})

	result, cancelled := o.runLoop(ctx, state, runner, opts.VerdictMode)

	elapsed := o.deps.Clock().Sub(start).Seconds()
	screenshots := countScreenshots(state.ScoutEvidenceSnapshot())

	if cancelled {
		// A genuine cancellation never reaches a verdict: no TrustResult
		// was computed, so BuildFinalResult (which reads state.Verdict)
		// and the audit_result event are both skipped.
		state.SetStatus(model.StatusAborted)
		final := model.BuildAbortedResult(state, opts.VerdictMode, screenshots, elapsed)
		o.emit(state, model.EventAuditError, model.PhaseAborted, 100, "audit aborted", map[string]string{"reason": "cancelled"})
		return &final, nil
	}

	state.SetStatus(model.StatusCompleted)
	final := model.BuildFinalResult(state, opts.VerdictMode, screenshots, elapsed)

	o.emit(state, model.EventAuditResult, model.PhaseDone, 100, "final result assembled", map[string]string{
		"risk_level": string(result.RiskLevel),
	})
	o.emit(state, model.EventAuditComplete, model.PhaseDone, 100, "audit complete", nil)

	return &final, nil
}

// runLoop implements the phase state machine. It returns the TrustResult
// the terminal phase (judge or force_verdict) produced, and whether the
// audit ended via cancellation rather than a normal conclusion or a
// forced verdict from exhausted budget/evidence. runForceVerdict — and
// the TrustResult it sets on state — is reserved for budget exhaustion
// and the scout-failure boundary; a cancellation never computes one.
func (o *Orchestrator) runLoop(ctx context.Context, state *model.AuditState, runner *security.Runner, mode model.VerdictMode) (model.TrustResult, bool) {
	for {
		if o.isCancelled() || ctx.Err() != nil {
			return model.TrustResult{}, true
		}

		if state.BudgetExceeded() {
			return o.runForceVerdict(ctx, state, mode), false
		}
		state.IncrementIteration()

		if forceVerdict := o.runScout(ctx, state); forceVerdict {
			return o.runForceVerdict(ctx, state, mode), false
		}

		if o.isCancelled() || ctx.Err() != nil {
			return model.TrustResult{}, true
		}

		o.runSecurity(ctx, state, runner)

		if err := o.runVision(ctx, state); err != nil {
			return model.TrustResult{}, true
		}

		o.runGraph(ctx, state)

		result, concluded, urls := o.runJudge(ctx, state, mode)
		if concluded {
			return result, false
		}
		state.EnqueueURLs(urls)

		if state.BudgetExceeded() {
			return o.runForceVerdict(ctx, state, mode), false
		}
	}
}

func countScreenshots(evidence []model.ScoutEvidence) int {
	n := 0
	for _, e := range evidence {
		if e.ScreenshotIndex != nil {
			n++
		}
	}
	return n
}
