// Package vision defines the boundary between the orchestrator and the
// vision-model client that classifies screenshots into dark-pattern
// findings. The core treats that client as the function Vision(images,
// prompts) -> Findings; the model call itself lives outside this module.
package vision

import (
	"context"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// Image is one screenshot to classify, identified by the scout evidence
// index it came from.
type Image struct {
	ScreenshotIndex int
	Data            []byte
}

// Visioner classifies a batch of screenshots against a set of prompts
// (one per dark-pattern category under inspection) into findings.
type Visioner interface {
	Vision(ctx context.Context, images []Image, prompts []string) ([]model.Finding, error)
}

// Func adapts a plain function to the Visioner interface.
type Func func(ctx context.Context, images []Image, prompts []string) ([]model.Finding, error)

func (f Func) Vision(ctx context.Context, images []Image, prompts []string) ([]model.Finding, error) {
	return f(ctx, images, prompts)
}

// DefaultPrompts is the fixed set of category prompts sent on every vision
// call, one per finding category in the canonical category order.
var DefaultPrompts = []string{
	"urgency: does this screenshot show a countdown timer, low-stock claim, or other artificial urgency?",
	"social_proof: does this screenshot show fabricated testimonials, fake activity notifications, or inflated counters?",
	"obstruction: does this screenshot show a cancellation, unsubscribe, or comparison path made deliberately hard to find?",
	"sneaking: does this screenshot show a pre-checked box, hidden fee, or a sneaked-in item at checkout?",
	"forced_action: does this screenshot show a forced account creation, forced continuity, or other action the user didn't choose?",
}
