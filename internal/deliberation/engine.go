package deliberation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deliberate-api/deliberate/internal/prompts"
	"github.com/deliberate-api/deliberate/internal/provider"
)

const (
	// analysisTemperature is used for rounds 1 and 2.
	analysisTemperature = 0.7
	// synthesisTemperature is lower to reduce variance in the structured tail.
	synthesisTemperature = 0.5

	modelsRequired = 3
)

// Engine runs the three-round deliberation protocol. It owns no long-lived
// state: each Run is a pure orchestration over its inputs. The backend
// client is injected at construction and shared across deliberations.
type Engine struct {
	provider provider.Provider
	logger   *slog.Logger
}

// NewEngine creates an engine backed by the given provider.
func NewEngine(p provider.Provider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{provider: p, logger: logger}
}

// Run executes the full deliberation: round 1 (independent analysis) and
// round 2 (cross-reading) fan out to every model; round 3 delegates
// synthesis to a single designated model, the first configured one.
//
// onProgress, if non-nil, is invoked exactly once before each round with
// the round number and a status message. Once round 1 has started Run does
// not fail: backend failures degrade into placeholder outputs that later
// rounds and the synthesis parser absorb. The only error return is a
// malformed request, checked before any round begins.
func (e *Engine) Run(ctx context.Context, req Request, onProgress ProgressFunc) (*DeliberationResult, error) {
	if len(req.Models) != modelsRequired {
		return nil, fmt.Errorf("expected %d models, got %d", modelsRequired, len(req.Models))
	}

	totalTokens := 0

	// Round 1: independent analysis.
	notify(onProgress, 1, "Running independent analysis...")
	r1 := e.runRound(ctx, e.round1Calls(req))
	totalTokens += sumTokens(r1)
	e.logger.Info("round complete", "round", 1, "agents", len(r1))

	// Round 2: cross-reading.
	notify(onProgress, 2, "Running cross-reading...")
	r2 := e.runRound(ctx, e.round2Calls(req, r1))
	totalTokens += sumTokens(r2)
	e.logger.Info("round complete", "round", 2, "agents", len(r2))

	// Round 3: one synthesis call, not N.
	notify(onProgress, 3, "Synthesizing results...")
	synthesis := e.callAgent(ctx, e.round3Call(req, r2))
	totalTokens += synthesis.TokensUsed

	result := ParseSynthesis(synthesis.Content)
	result.TokensUsed = totalTokens
	e.logger.Info("round complete", "round", 3,
		"confidence", result.Confidence,
		"tokens_used", result.TokensUsed)

	return result, nil
}

// round1Calls gives each model a role-specific framing of the same thesis
// and context, with no inter-agent data.
func (e *Engine) round1Calls(req Request) []agentCall {
	calls := make([]agentCall, len(req.Models))
	for i, model := range req.Models {
		calls[i] = agentCall{
			model:       model,
			prompt:      prompts.BuildR1(req.Thesis, req.Context, i),
			agentID:     agentID(i),
			temperature: analysisTemperature,
		}
	}
	return calls
}

// round2Calls builds each agent's cross-reading prompt from its own round-1
// output plus every other agent's output under a positional pseudonym, so
// no agent learns which backend produced which analysis.
func (e *Engine) round2Calls(req Request, r1 []AgentOutput) []agentCall {
	calls := make([]agentCall, len(r1))
	for i, own := range r1 {
		others := make([]prompts.LabeledOutput, 0, len(r1)-1)
		for j, out := range r1 {
			if j == i {
				continue
			}
			others = append(others, prompts.LabeledOutput{
				Label:   prompts.Label(j),
				Content: out.Content,
			})
		}

		calls[i] = agentCall{
			model:       req.Models[i],
			prompt:      prompts.BuildR2(req.Thesis, own.Content, others),
			agentID:     agentID(i),
			temperature: analysisTemperature,
		}
	}
	return calls
}

// round3Call delegates synthesis to the first configured model over all
// round-2 outputs.
func (e *Engine) round3Call(req Request, r2 []AgentOutput) agentCall {
	all := make([]prompts.LabeledOutput, len(r2))
	for i, out := range r2 {
		all[i] = prompts.LabeledOutput{
			Label:   prompts.Label(i),
			Content: out.Content,
		}
	}

	return agentCall{
		model:       req.Models[0],
		prompt:      prompts.BuildR3(req.Thesis, all),
		agentID:     "synthesis",
		temperature: synthesisTemperature,
	}
}

func notify(onProgress ProgressFunc, round int, status string) {
	if onProgress != nil {
		onProgress(round, status)
	}
}

func sumTokens(outputs []AgentOutput) int {
	total := 0
	for _, o := range outputs {
		total += o.TokensUsed
	}
	return total
}

func agentID(i int) string {
	return fmt.Sprintf("agent_%d", i)
}
