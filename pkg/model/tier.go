package model

import "fmt"

// Tier selects the audit's budget envelope. Immutable once an audit starts.
type Tier string

const (
	TierQuick    Tier = "quick"
	TierStandard Tier = "standard"
	TierDeep     Tier = "deep"
)

// ParseTier validates a tier string from the CLI or environment.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierQuick, TierStandard, TierDeep:
		return Tier(s), nil
	default:
		return "", fmt.Errorf("%w: unknown tier %q", ErrInput, s)
	}
}

// VerdictMode controls how much detail the judge phase's narrative carries.
type VerdictMode string

const (
	VerdictModeSimple VerdictMode = "simple"
	VerdictModeExpert VerdictMode = "expert"
)

// ParseVerdictMode validates a verdict-mode string from the CLI.
func ParseVerdictMode(s string) (VerdictMode, error) {
	switch VerdictMode(s) {
	case VerdictModeSimple, VerdictModeExpert:
		return VerdictMode(s), nil
	default:
		return "", fmt.Errorf("%w: unknown verdict mode %q", ErrInput, s)
	}
}

// Budget holds the hard caps for a single audit, resolved from Tier at
// startup by pkg/config. Immutable for the lifetime of the audit.
type Budget struct {
	MaxIterations int `json:"max_iterations"`
	MaxPages      int `json:"max_pages"`
	MaxAICalls    int `json:"max_ai_calls"`
}

// Counters holds the running tallies checked against Budget at every
// transition. Monotonically non-decreasing; never exceed the corresponding
// Budget field for pages/iterations (AI calls are a soft cap, see
// pkg/orchestrator's budget gate).
type Counters struct {
	AICalls      int `json:"ai_calls"`
	PagesScouted int `json:"pages_scouted"`
}

// Exceeded reports whether any cap — iterations, pages, or AI calls — has
// been reached, which forces the next orchestrator transition to
// force_verdict. Iterations and pages are hard caps: Counters.PagesScouted
// and the iteration counter are never allowed to exceed them (the
// orchestrator checks the gate before starting work, not only after). The
// AI-call cap is "soft": it still routes to
// force_verdict like the others (the audit never blocks waiting for more AI
// budget), but it is advisory rather than tracked with the same
// before-work precision — a single phase may make one more AI call than
// the budget strictly allows before the gate catches it on the next
// transition.
func (b Budget) Exceeded(iteration int, c Counters) bool {
	return iteration >= b.MaxIterations ||
		c.PagesScouted >= b.MaxPages ||
		c.AICalls >= b.MaxAICalls
}
