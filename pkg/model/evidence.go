package model

// ScoutEvidence is one entry per page scouted — produced by the external
// Scout collaborator, treated as a function Scout(url) -> ScoutEvidence.
// The core only needs its shape, not its implementation.
type ScoutEvidence struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	HTML            string   `json:"html,omitempty"`
	ScreenshotIndex *int     `json:"screenshot_index,omitempty"`
	DiscoveredLinks []string `json:"discovered_links,omitempty"`
	FetchedAtUnix   int64    `json:"fetched_at"`
}

// SecurityModuleResult is a single security analyzer's sub-result, keyed
// by module name in AuditState.SecurityEvidence.
type SecurityModuleResult struct {
	Module     string             `json:"module"`
	Passed     bool               `json:"passed"`
	Confidence float64            `json:"confidence"`
	Detail     string             `json:"detail"`
	Flags      map[string]bool    `json:"flags,omitempty"`
}

// VerificationResult is a single OSINT source's contribution to an entity
// verification, used inside GraphEvidence.
type VerificationResult struct {
	Source      string  `json:"source"`
	Verdict     string  `json:"verdict"` // "malicious" | "clean" | "unknown"
	Confidence  float64 `json:"confidence"`
	TrustLevel  string  `json:"trust_level"`
	Detail      string  `json:"detail,omitempty"`
}

// ConflictRecord preserves a disagreement between two OSINT sources rather
// than silently collapsing it into an averaged score.
type ConflictRecord struct {
	MaliciousSource string `json:"malicious_source"`
	CleanSource     string `json:"clean_source"`
	Explanation     string `json:"explanation"`
}

// GraphEvidence is the OSINT/CTI entity profile gathered by the graph
// phase: present iff the graph phase has completed at least once.
type GraphEvidence struct {
	EntityName        string                `json:"entity_name,omitempty"`
	Verifications     []VerificationResult  `json:"verifications"`
	Conflicts         []ConflictRecord      `json:"conflicts,omitempty"`
	MaliciousRatio    float64               `json:"malicious_ratio"`
	OverallVerdict    string                `json:"overall_verdict"` // "malicious" | "clean"
	OverallConfidence float64               `json:"overall_confidence"`
	Confirmed         bool                  `json:"confirmed"`
	PhishingListHit   bool                  `json:"phishing_list_hit"`
	DarknetMatch      bool                  `json:"darknet_marketplace_match"`
}

// SiteType is a classification label with a confidence, nullable until
// site-typing runs (used by the trust engine to pick site-type-specific
// weights once confidence clears a threshold).
type SiteType struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}
