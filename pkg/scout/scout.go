// Package scout defines the boundary between the orchestrator and the
// browser-automation agent that actually fetches pages and captures
// screenshots. The core treats that agent as the function Scout(url) ->
// ScoutEvidence; concrete scouting (headless browser control, screenshot
// persistence) lives outside this module.
package scout

import (
	"context"

	"github.com/darkpatternlabs/urlaudit/pkg/model"
)

// Scouter fetches one page and returns its evidence. Implementations decide
// how: a real implementation drives a headless browser, a test double
// returns canned evidence.
type Scouter interface {
	Scout(ctx context.Context, url string) (model.ScoutEvidence, error)
}

// Func adapts a plain function to the Scouter interface, the same lightweight
// adapter pattern as http.HandlerFunc.
type Func func(ctx context.Context, url string) (model.ScoutEvidence, error)

func (f Func) Scout(ctx context.Context, url string) (model.ScoutEvidence, error) {
	return f(ctx, url)
}
