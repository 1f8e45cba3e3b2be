package model

// FinalResult is the single JSON document emitted on stdout after transport
// events. It is distinguishable from fallback-mode progress lines by not
// carrying the sentinel prefix.
type FinalResult struct {
	URL               string                          `json:"url"`
	TrustScore        float64                         `json:"trust_score"`
	RiskLevel         RiskLevel                        `json:"risk_level"`
	SignalScores      map[SignalName]int               `json:"signal_scores"`
	Overrides         []string                         `json:"overrides"`
	Narrative         string                            `json:"narrative"`
	Recommendations   []string                          `json:"recommendations"`
	Findings          []Finding                         `json:"findings"`
	SecurityResults   map[string]SecurityModuleResult   `json:"security_results"`
	SiteType          string                             `json:"site_type,omitempty"`
	SiteTypeConfidence float64                           `json:"site_type_confidence,omitempty"`
	PagesScanned      int                                `json:"pages_scanned"`
	ScreenshotsCount  int                                `json:"screenshots_count"`
	ElapsedSeconds    float64                            `json:"elapsed_seconds"`
	Errors            []ErrorRecord                      `json:"errors"`
	VerdictMode       VerdictMode                        `json:"verdict_mode"`
	Status            Status                             `json:"status"`
}

// BuildFinalResult assembles the wire-format FinalResult from a terminal
// AuditState. Called once, after the orchestrator reaches "done".
func BuildFinalResult(s *AuditState, verdictMode VerdictMode, screenshotsCount int, elapsedSeconds float64) FinalResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	overrideNames := make([]string, 0, len(s.Verdict.Overrides))
	for _, o := range s.Verdict.Overrides {
		overrideNames = append(overrideNames, o.Name)
	}

	res := FinalResult{
		URL:              s.TargetURL,
		TrustScore:       s.Verdict.FinalScore,
		RiskLevel:        s.Verdict.RiskLevel,
		SignalScores:     s.Verdict.SignalScores,
		Overrides:        overrideNames,
		Narrative:        s.Verdict.Narrative,
		Recommendations:  s.Verdict.Recommendations,
		Findings:         s.VisionFindings,
		SecurityResults:  s.SecurityEvidence,
		PagesScanned:     s.Counters.PagesScouted,
		ScreenshotsCount: screenshotsCount,
		ElapsedSeconds:   elapsedSeconds,
		Errors:           s.Errors,
		VerdictMode:      verdictMode,
		Status:           s.Status,
	}
	if s.SiteType != nil {
		res.SiteType = s.SiteType.Label
		res.SiteTypeConfidence = s.SiteType.Confidence
	}
	return res
}

// BuildAbortedResult assembles the wire-format FinalResult for a
// cancelled audit, one that never reached a verdict. Unlike
// BuildFinalResult it never reads s.Verdict, which is nil in this case:
// TrustScore, RiskLevel, SignalScores, Overrides, Narrative, and
// Recommendations are left at their zero values.
func BuildAbortedResult(s *AuditState, verdictMode VerdictMode, screenshotsCount int, elapsedSeconds float64) FinalResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := FinalResult{
		URL:              s.TargetURL,
		Findings:         s.VisionFindings,
		SecurityResults:  s.SecurityEvidence,
		PagesScanned:     s.Counters.PagesScouted,
		ScreenshotsCount: screenshotsCount,
		ElapsedSeconds:   elapsedSeconds,
		Errors:           s.Errors,
		VerdictMode:      verdictMode,
		Status:           s.Status,
	}
	if s.SiteType != nil {
		res.SiteType = s.SiteType.Label
		res.SiteTypeConfidence = s.SiteType.Confidence
	}
	return res
}
