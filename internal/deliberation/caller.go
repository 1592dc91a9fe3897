package deliberation

import (
	"context"
	"fmt"

	"github.com/deliberate-api/deliberate/internal/provider"
)

const maxOutputTokens = 4096

// agentCall is one unit of work for a round: a model, the prompt it gets,
// and the agent slot it fills.
type agentCall struct {
	model       string
	prompt      string
	agentID     string
	temperature float64
}

// callAgent invokes a single backend and normalizes the outcome into an
// AgentOutput. Backend failures never propagate: they are folded into a
// degraded output with marked content and zero tokens, so one failing model
// cannot abort its siblings or the round.
func (e *Engine) callAgent(ctx context.Context, call agentCall) AgentOutput {
	resp, err := e.provider.Complete(ctx, provider.Request{
		Model:       call.model,
		Prompt:      call.prompt,
		MaxTokens:   maxOutputTokens,
		Temperature: call.temperature,
	})
	if err != nil {
		e.logger.Error("agent call failed",
			"agent_id", call.agentID,
			"model", call.model,
			"error", err)
		return AgentOutput{
			AgentID:    call.agentID,
			Model:      call.model,
			Content:    fmt.Sprintf("[Error: %v]", err),
			TokensUsed: 0,
		}
	}

	return AgentOutput{
		AgentID:    call.agentID,
		Model:      call.model,
		Content:    resp.Content,
		TokensUsed: resp.TokensUsed,
	}
}
