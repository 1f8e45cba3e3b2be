package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/darkpatternlabs/urlaudit/pkg/config"
	"github.com/darkpatternlabs/urlaudit/pkg/model"
	"github.com/darkpatternlabs/urlaudit/pkg/osint"
	"github.com/darkpatternlabs/urlaudit/pkg/security"
	"github.com/darkpatternlabs/urlaudit/pkg/trust"
	"github.com/darkpatternlabs/urlaudit/pkg/vision"
)

// emit publishes one progress event, logging (rather than failing the
// audit) if the transport itself errors — a transport failure is handled
// by the transport's own fallback, not by aborting the phase.
func (o *Orchestrator) emit(state *model.AuditState, evType model.EventType, phase model.Phase, pct int, detail string, summary map[string]string) {
	ev := model.ProgressEvent{
		Type:      evType,
		Phase:     phase,
		Step:      state.NextStep(),
		Pct:       pct,
		Detail:    detail,
		Summary:   summary,
		Timestamp: o.deps.Clock().Unix(),
	}
	if err := o.deps.Transport.Emit(ev); err != nil {
		slog.Warn("progress event dropped", "phase", phase, "type", evType, "err", err)
	}
}

// runScout pops as many pending URLs as the remaining page budget allows
// and scouts each in turn. It returns true if the scout-failure boundary
// (>=3 consecutive failures, zero evidence ever) was hit, which forces the
// orchestrator straight to force_verdict.
func (o *Orchestrator) runScout(ctx context.Context, state *model.AuditState) bool {
	o.emit(state, model.EventPhaseStart, model.PhaseScout, 0, "scout starting", nil)

	snap := state.Snapshot()
	remaining := state.Budget.MaxPages - snap.Counters.PagesScouted
	if remaining <= 0 {
		o.emit(state, model.EventPhaseComplete, model.PhaseScout, 100, "page budget exhausted", map[string]string{"pages": "0"})
		return false
	}

	urls := state.PopPendingURLs(remaining)
	if len(urls) == 0 {
		o.emit(state, model.EventPhaseComplete, model.PhaseScout, 100, "no pending urls", map[string]string{"pages": "0"})
		return false
	}

	timeout := o.deps.Config.Timeouts.ScoutPage * time.Duration(len(urls))
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	succeeded := 0
	for _, u := range urls {
		ev, err := o.deps.Scout.Scout(sctx, u)
		if err != nil {
			state.AppendError(model.NewErrorRecord("scout", "", err, o.deps.Clock().Unix()))
			if state.RecordScoutFailure() {
				o.emit(state, model.EventPhaseError, model.PhaseScout, 100, "scout failure boundary reached", map[string]string{"consecutive_failures": "3"})
				return true
			}
			continue
		}
		state.RecordScoutSuccess(ev)
		state.EnqueueURLs(ev.DiscoveredLinks)
		succeeded++
	}

	o.emit(state, model.EventPhaseComplete, model.PhaseScout, 100, "scout complete", map[string]string{"pages": strconv.Itoa(succeeded)})
	return false
}

func (o *Orchestrator) runSecurity(ctx context.Context, state *model.AuditState, runner *security.Runner) {
	o.emit(state, model.EventPhaseStart, model.PhaseSecurity, 0, "security starting", nil)

	tctx, cancel := context.WithTimeout(ctx, o.deps.Config.Timeouts.Global)
	defer cancel()

	evidence := state.ScoutEvidenceSnapshot()
	results := runner.Run(tctx, evidence)
	for _, r := range results {
		if r.Err != nil {
			state.AppendError(model.NewErrorRecord("security", r.Module, r.Err, o.deps.Clock().Unix()))
			continue
		}
		state.MergeSecurityResult(r.Module, r.Value)
	}

	o.emit(state, model.EventPhaseComplete, model.PhaseSecurity, 100, "security complete", map[string]string{"modules": strconv.Itoa(len(results))})
}

func (o *Orchestrator) runVision(ctx context.Context, state *model.AuditState) error {
	o.emit(state, model.EventPhaseStart, model.PhaseVision, 0, "vision starting", nil)

	tctx, cancel := context.WithTimeout(ctx, o.deps.Config.Timeouts.Global)
	defer cancel()

	evidence := state.ScoutEvidenceSnapshot()
	var images []vision.Image
	for _, ev := range evidence {
		if ev.ScreenshotIndex == nil {
			continue
		}
		images = append(images, vision.Image{ScreenshotIndex: *ev.ScreenshotIndex})
	}

	findings, err := o.deps.Vision.Vision(tctx, images, vision.DefaultPrompts)
	if err != nil {
		if err == context.Canceled || ctx.Err() != nil {
			o.emit(state, model.EventPhaseError, model.PhaseVision, 100, "vision cancelled", nil)
			return model.ErrCancelled
		}
		state.AppendError(model.NewErrorRecord("vision", "", err, o.deps.Clock().Unix()))
		o.emit(state, model.EventPhaseError, model.PhaseVision, 100, err.Error(), nil)
		return nil
	}

	state.AppendVisionFindings(findings, o.deps.Config.ConfidenceThreshold)
	o.emit(state, model.EventPhaseComplete, model.PhaseVision, 100, "vision complete", map[string]string{"findings": strconv.Itoa(len(findings))})
	return nil
}

func (o *Orchestrator) runGraph(ctx context.Context, state *model.AuditState) {
	o.emit(state, model.EventPhaseStart, model.PhaseGraph, 0, "graph starting", nil)

	tctx, cancel := context.WithTimeout(ctx, o.deps.Config.Timeouts.Graph)
	defer cancel()

	var results []model.VerificationResult
	if o.deps.OSINT != nil {
		var errs []model.ErrorRecord
		results, errs = o.deps.OSINT.QueryAll(tctx, o.deps.Config.OSINT.Sources, state.TargetURL, o.deps.Config.OSINT, osint.Clock(o.deps.Clock))
		for _, e := range errs {
			state.AppendError(e)
		}
	}

	bySource := make(map[string]config.SourceConfig, len(o.deps.Config.OSINT.Sources))
	for _, src := range o.deps.Config.OSINT.Sources {
		bySource[src.Name] = src
	}
	ev := osint.Resolve(state.TargetURL, results, bySource, osint.Thresholds{
		HighConfidenceAt: o.deps.Config.OSINT.HighConfidenceThresh,
	})
	state.SetGraphEvidence(ev)

	o.emit(state, model.EventPhaseComplete, model.PhaseGraph, 100, "graph complete", map[string]string{
		"sources":         strconv.Itoa(len(results)),
		"overall_verdict": ev.OverallVerdict,
	})
}

// runJudge computes a trust result from everything accumulated so far and
// decides, via the configured JudgeFunc, whether another iteration is
// warranted. The returned bool reports whether the audit should conclude
// now.
func (o *Orchestrator) runJudge(ctx context.Context, state *model.AuditState, mode model.VerdictMode) (model.TrustResult, bool, []string) {
	o.emit(state, model.EventPhaseStart, model.PhaseJudge, 0, "judge starting", nil)

	signals := deriveSignals(state)
	result := trust.Compute(o.deps.Config, trust.Input{
		Signals:  signals,
		SiteType: state.SiteTypeSnapshot(),
		Graph:    state.GraphEvidenceSnapshot(),
		Security: state.SecurityEvidenceSnapshot(),
		Findings: state.VisionFindingsSnapshot(),
	})

	requestMore, urls := o.deps.Judge(state, result)
	concluded := !requestMore

	detail := "judge concluded"
	if requestMore {
		detail = "judge requested more pages"
	}
	o.emit(state, model.EventPhaseComplete, model.PhaseJudge, 100, detail, map[string]string{
		"final_score": fmt.Sprintf("%.2f", result.FinalScore),
		"risk_level":  string(result.RiskLevel),
	})

	if concluded {
		state.SetVerdict(result)
	}
	return result, concluded, urls
}

// runForceVerdict produces a best-effort verdict from whatever evidence
// exists, used whenever a budget is exhausted or the scout-failure boundary
// fires.
func (o *Orchestrator) runForceVerdict(_ context.Context, state *model.AuditState, _ model.VerdictMode) model.TrustResult {
	o.emit(state, model.EventPhaseStart, model.PhaseForceVerdict, 0, "forcing verdict", nil)

	signals := deriveSignals(state)
	result := trust.Compute(o.deps.Config, trust.Input{
		Signals:  signals,
		SiteType: state.SiteTypeSnapshot(),
		Graph:    state.GraphEvidenceSnapshot(),
		Security: state.SecurityEvidenceSnapshot(),
		Findings: state.VisionFindingsSnapshot(),
	})
	state.SetVerdict(result)

	o.emit(state, model.EventPhaseComplete, model.PhaseForceVerdict, 100, "forced verdict produced", map[string]string{
		"final_score": fmt.Sprintf("%.2f", result.FinalScore),
	})
	return result
}
