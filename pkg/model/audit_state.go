package model

import "sync"

// Status is the sticky terminal/non-terminal lifecycle status of an audit.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusAborted   Status = "aborted"
)

// terminalStatuses is the set Status values that are sticky — once set,
// AuditState.SetStatus refuses to overwrite them.
var terminalStatuses = map[Status]bool{
	StatusCompleted: true,
	StatusError:     true,
	StatusAborted:   true,
}

// AuditState is the single object flowing through the pipeline. It is
// mutated by at most one phase handler at a time — the orchestrator
// serializes phase execution — but the mutex still guards fields read
// concurrently by the progress-event emitter and by Cancel().
type AuditState struct {
	mu sync.Mutex

	AuditID   string `json:"audit_id"`
	TargetURL string `json:"target_url"` // immutable after New
	Tier      Tier   `json:"tier"`       // immutable after New

	Iteration int      `json:"iteration"`
	Budget    Budget   `json:"budget"`   // immutable after New
	Counters  Counters `json:"counters"`

	PendingURLs      []string `json:"pending_urls"`
	investigatedSet  map[string]bool
	InvestigatedURLs []string `json:"investigated_urls"`

	ScoutEvidence     []ScoutEvidence                 `json:"scout_evidence"`
	SecurityEvidence  map[string]SecurityModuleResult `json:"security_evidence"`
	VisionFindings    []Finding                       `json:"vision_findings"`
	GraphEvidence     *GraphEvidence                  `json:"graph_evidence,omitempty"`
	SiteType          *SiteType                       `json:"site_type,omitempty"`

	Verdict *TrustResult  `json:"verdict,omitempty"`
	Errors  []ErrorRecord `json:"errors"`
	Status  Status        `json:"status"`

	// moduleIndex assigns ProgressEvent.step values; internal bookkeeping
	// only, never serialized in the final result.
	moduleIndex int

	// consecutiveScoutFailures tracks the force_verdict boundary condition:
	// >= 3 consecutive scout failures AND no successful evidence ever.
	consecutiveScoutFailures int
}

// New creates a fresh AuditState for one audit. budget is resolved by
// pkg/config from the tier before this is called.
func New(auditID, targetURL string, tier Tier, budget Budget) *AuditState {
	return &AuditState{
		AuditID:          auditID,
		TargetURL:        targetURL,
		Tier:             tier,
		Budget:           budget,
		PendingURLs:      []string{targetURL},
		investigatedSet:  make(map[string]bool),
		InvestigatedURLs: []string{},
		SecurityEvidence: make(map[string]SecurityModuleResult),
		VisionFindings:   []Finding{},
		Errors:           []ErrorRecord{},
		Status:           StatusRunning,
	}
}

// SetStatus applies a new status unless the current status is already
// terminal — terminal values are sticky.
func (s *AuditState) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if terminalStatuses[s.Status] {
		return
	}
	s.Status = status
}

// NextStep returns a monotonically increasing step counter for the current
// phase's progress events.
func (s *AuditState) NextStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moduleIndex++
	return s.moduleIndex
}

// PopPendingURLs removes and returns up to n URLs from the front of
// PendingURLs that are not already investigated, marking them investigated
// as they're popped (maintaining the "each URL not already in
// InvestigatedURLs" invariant for what remains in PendingURLs).
func (s *AuditState) PopPendingURLs(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var popped []string
	var remaining []string
	for _, u := range s.PendingURLs {
		if len(popped) >= n {
			remaining = append(remaining, u)
			continue
		}
		if s.investigatedSet[u] {
			continue
		}
		popped = append(popped, u)
		s.investigatedSet[u] = true
		s.InvestigatedURLs = append(s.InvestigatedURLs, u)
	}
	s.PendingURLs = remaining
	return popped
}

// EnqueueURLs appends URLs to PendingURLs, skipping any already
// investigated (preserving the "strict subset" invariant).
func (s *AuditState) EnqueueURLs(urls []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range urls {
		if s.investigatedSet[u] {
			continue
		}
		s.PendingURLs = append(s.PendingURLs, u)
	}
}

// HasPendingURLs reports whether any URL remains to be scouted.
func (s *AuditState) HasPendingURLs() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.PendingURLs) > 0
}

// RecordScoutSuccess appends scout evidence, advances the pages-scouted
// counter, and resets the consecutive-failure streak.
func (s *AuditState) RecordScoutSuccess(ev ScoutEvidence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ScoutEvidence = append(s.ScoutEvidence, ev)
	s.Counters.PagesScouted++
	s.consecutiveScoutFailures = 0
}

// RecordScoutFailure increments the consecutive-failure streak and
// reports whether the force_verdict boundary condition has now been hit:
// >= 3 consecutive failures AND zero scout evidence ever recorded.
func (s *AuditState) RecordScoutFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveScoutFailures++
	return s.consecutiveScoutFailures >= 3 && len(s.ScoutEvidence) == 0
}

// AppendError appends a non-fatal error record; the error log is append-only.
func (s *AuditState) AppendError(rec ErrorRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors = append(s.Errors, rec)
}

// IncrementIteration advances the iteration counter at the top of each
// scout->judge loop.
func (s *AuditState) IncrementIteration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Iteration++
}

// BudgetExceeded reports whether any hard/soft cap has been reached given
// the current iteration and counters, under the state's own lock so
// readers always see a consistent (Iteration, Counters) pair.
func (s *AuditState) BudgetExceeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Budget.Exceeded(s.Iteration, s.Counters)
}

// ScoutEvidenceSnapshot returns a copy of the scout evidence gathered so
// far, safe for a phase handler to read without racing the next mutation.
func (s *AuditState) ScoutEvidenceSnapshot() []ScoutEvidence {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScoutEvidence, len(s.ScoutEvidence))
	copy(out, s.ScoutEvidence)
	return out
}

// MergeSecurityResult records one security module's result, a typed setter
// in place of a generic dictionary update.
func (s *AuditState) MergeSecurityResult(name string, result SecurityModuleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SecurityEvidence == nil {
		s.SecurityEvidence = make(map[string]SecurityModuleResult)
	}
	s.SecurityEvidence[name] = result
}

// SecurityEvidenceSnapshot returns a copy of the security results recorded
// so far.
func (s *AuditState) SecurityEvidenceSnapshot() map[string]SecurityModuleResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]SecurityModuleResult, len(s.SecurityEvidence))
	for k, v := range s.SecurityEvidence {
		out[k] = v
	}
	return out
}

// AppendVisionFindings accumulates findings from one vision pass; findings
// below confidenceThreshold are dropped, per the configured
// CONFIDENCE_THRESHOLD environment variable.
func (s *AuditState) AppendVisionFindings(findings []Finding, confidenceThreshold float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range findings {
		if f.Confidence < confidenceThreshold {
			continue
		}
		s.VisionFindings = append(s.VisionFindings, f)
	}
}

// VisionFindingsSnapshot returns a copy of the findings recorded so far.
func (s *AuditState) VisionFindingsSnapshot() []Finding {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Finding, len(s.VisionFindings))
	copy(out, s.VisionFindings)
	return out
}

// SetGraphEvidence records the graph/OSINT phase's entity profile. Present
// iff the graph phase has completed at least once.
func (s *AuditState) SetGraphEvidence(ev GraphEvidence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GraphEvidence = &ev
}

// GraphEvidenceSnapshot returns the current graph evidence, or nil if the
// graph phase has never completed.
func (s *AuditState) GraphEvidenceSnapshot() *GraphEvidence {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GraphEvidence == nil {
		return nil
	}
	cp := *s.GraphEvidence
	return &cp
}

// SetSiteType records the site-type classification once it's available.
func (s *AuditState) SetSiteType(st SiteType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SiteType = &st
}

// SiteTypeSnapshot returns the current site-type classification, or nil if
// site-typing has never run.
func (s *AuditState) SiteTypeSnapshot() *SiteType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SiteType == nil {
		return nil
	}
	cp := *s.SiteType
	return &cp
}

// SetVerdict records the final TrustResult exactly once, at the point the
// orchestrator exits the loop.
func (s *AuditState) SetVerdict(tr TrustResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Verdict = &tr
}

// Snapshot returns a shallow copy of the counters/iteration/errors for
// progress-event summaries, without exposing the mutex or internal maps.
type Snapshot struct {
	Iteration int
	Counters  Counters
	ErrCount  int
	Status    Status
}

func (s *AuditState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Iteration: s.Iteration,
		Counters:  s.Counters,
		ErrCount:  len(s.Errors),
		Status:    s.Status,
	}
}
