// Package deliberation implements the three-round deliberation protocol:
// independent analysis, cross-reading, and synthesis of a structured verdict.
package deliberation

// Confidence is the verdict confidence level. It is always one of exactly
// three values; anything else observed on the wire is coerced to medium.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence normalizes a raw confidence string. Unknown or empty
// values become medium.
func ParseConfidence(s string) Confidence {
	switch Confidence(s) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return Confidence(s)
	default:
		return ConfidenceMedium
	}
}

// AgentOutput is one backend call's result. A degraded output (backend
// failure) carries a visibly-marked error placeholder as content and zero
// tokens. Created once per call; never mutated afterwards.
type AgentOutput struct {
	AgentID    string `json:"agent_id"`
	Model      string `json:"model"`
	Content    string `json:"content"`
	TokensUsed int    `json:"tokens_used"`
}

// Position is one labeled viewpoint inside a divergence.
type Position struct {
	View       string     `json:"view"`
	Confidence Confidence `json:"confidence"`
}

// Divergence is a topic on which the agents' synthesized positions disagree.
type Divergence struct {
	Topic       string     `json:"topic"`
	Description string     `json:"description"`
	Positions   []Position `json:"positions"`
}

// DeliberationResult is the structured output of a deliberation.
type DeliberationResult struct {
	// Verdict is the direct response to the thesis.
	Verdict    string     `json:"verdict"`
	Confidence Confidence `json:"confidence"`

	// Reasoning is the synthesized justification for the verdict.
	Reasoning string `json:"reasoning,omitempty"`

	// Support lists the key points backing the verdict.
	Support []string `json:"support"`

	// Concerns lists the key risks or limitations.
	Concerns []string `json:"concerns"`

	// Conviction is what the agents most strongly agreed on.
	Conviction string `json:"conviction"`

	// OpenQuestions lists the unresolved issues that matter most.
	OpenQuestions []string `json:"open_questions"`

	// Divergences lists the points of disagreement between agents.
	Divergences []Divergence `json:"divergences"`

	// TokensUsed is the total across every call in every round, including
	// degraded calls (which contribute zero).
	TokensUsed int `json:"tokens_used"`

	// RoundsCompleted reflects how far the protocol actually progressed.
	RoundsCompleted int `json:"rounds_completed"`
}

// Request is the input to one deliberation.
type Request struct {
	Thesis  string
	Context string
	// Models are the backend identifiers, one per agent. Exactly three
	// are required; order assigns agent indices and pseudonyms.
	Models []string
}

// ProgressFunc is notified before each round starts. It is a fire-and-forget
// hook: the engine assumes it does not panic and never waits on it.
type ProgressFunc func(round int, status string)
