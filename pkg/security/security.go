// Package security defines the common interface every security-analyzer
// implementation satisfies (header parsing, phishing-list lookup, form
// validators, TLS checks). The core only depends on this interface and the
// Runner that drives the configured module set; concrete analyzers are
// external collaborators.
package security

import (
	"context"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// Analyzer is one security module. Name must be stable and match an entry
// in the enabled module set from configuration.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, evidence []model.ScoutEvidence) (model.SecurityModuleResult, error)
}

// Runner drives a fixed set of analyzers against scout evidence and returns
// every result (success or failure) to the security phase, which merges the
// successes into the security-evidence map and records the failures as
// errors.
type Runner struct {
	analyzers []Analyzer
}

// NewRunner builds a Runner restricted to the analyzers whose Name() appears
// in enabled; analyzers not named there are skipped entirely, preserving the
// "keys are a subset of the enabled module set" invariant on
// AuditState.SecurityEvidence.
func NewRunner(all []Analyzer, enabled []string) *Runner {
	want := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		want[name] = true
	}
	var picked []Analyzer
	for _, a := range all {
		if want[a.Name()] {
			picked = append(picked, a)
		}
	}
	return &Runner{analyzers: picked}
}

// Result pairs an analyzer's outcome with any error it returned, so the
// caller can both merge the result and record the failure.
type Result struct {
	Module string
	Value  model.SecurityModuleResult
	Err    error
}

// Run executes every configured analyzer against evidence, one at a time —
// security modules are CPU/local-parse bound and never suspend, so there
// is no concurrency to bound here the way there is in the OSINT fanout.
func (r *Runner) Run(ctx context.Context, evidence []model.ScoutEvidence) []Result {
	results := make([]Result, 0, len(r.analyzers))
	for _, a := range r.analyzers {
		val, err := a.Analyze(ctx, evidence)
		if err != nil {
			val.Module = a.Name()
		}
		results = append(results, Result{Module: a.Name(), Value: val, Err: err})
	}
	return results
}
