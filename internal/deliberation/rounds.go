package deliberation

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runRound executes all calls concurrently and returns outputs in input
// order regardless of completion order: each goroutine writes into its own
// slot, and the errgroup wait is the round barrier. The round does not
// return until every call has terminated, degraded or not; a slow or
// failing call never cancels its siblings.
func (e *Engine) runRound(ctx context.Context, calls []agentCall) []AgentOutput {
	outputs := make([]AgentOutput, len(calls))

	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			outputs[i] = e.callAgent(ctx, call)
			return nil
		})
	}

	// No goroutine returns an error; failures degrade inside callAgent.
	g.Wait()

	return outputs
}
