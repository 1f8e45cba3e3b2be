package model

// Category is one of the five top-level dark-pattern taxonomy buckets.
type Category string

const (
	CategoryUrgency       Category = "urgency"
	CategorySocialProof    Category = "social_proof"
	CategoryObstruction    Category = "obstruction"
	CategorySneaking       Category = "sneaking"
	CategoryForcedAction   Category = "forced_action"
)

// categoryOrder gives each category a deterministic rank used when
// ordering recommendations: by severity, then by category id.
var categoryOrder = map[Category]int{
	CategoryUrgency:     0,
	CategorySocialProof: 1,
	CategoryObstruction: 2,
	CategorySneaking:    3,
	CategoryForcedAction: 4,
}

// CategoryID returns the deterministic ordering rank for a category, or a
// value past the end of the known set for anything unrecognized so unknown
// categories sort last instead of first.
func CategoryID(c Category) int {
	if id, ok := categoryOrder[c]; ok {
		return id
	}
	return len(categoryOrder)
}

// Severity is one of four ordered severity levels.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities from least (0) to most (3) severe, used
// both for validation and for deterministic recommendation ordering.
var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// SeverityRank returns the ordering rank of a severity, or -1 if unknown.
func SeverityRank(s Severity) int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// Finding is a single dark-pattern observation produced by the vision
// phase (or, for structural/textual patterns, by security analyzers
// feeding into vision's synthesis).
type Finding struct {
	Category         Category `json:"category"`
	SubType          string   `json:"sub_type"`
	Severity         Severity `json:"severity"`
	Confidence       float64  `json:"confidence"`
	Description      string   `json:"description"`
	Paraphrase       string   `json:"paraphrase"`
	ScreenshotIndex  *int     `json:"screenshot_index,omitempty"`
}

// Valid reports whether the finding's invariants hold: confidence in [0,1]
// and severity in the known set.
func (f Finding) Valid() bool {
	if f.Confidence < 0 || f.Confidence > 1 {
		return false
	}
	_, ok := severityRank[f.Severity]
	return ok
}
