// Package prompts builds the per-round prompt text for the deliberation
// protocol. Rounds 1 and 2 produce free-form markdown analysis; round 3
// instructs the synthesis model to end with a structured JSON block.
package prompts

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

// agentLabels are the positional pseudonyms used when one agent reads
// another's output. Agents never see which model produced which analysis.
var agentLabels = []string{"Agent Alpha", "Agent Beta", "Agent Gamma"}

// roles give each round-1 agent a distinct analytical stance so the three
// independent analyses do not collapse into the same reading.
var roles = []string{
	"an advocate: steelman the thesis and build the strongest good-faith case for it before weighing it",
	"a skeptic: hunt for flaws, counterexamples, hidden assumptions, and failure modes",
	"a neutral analyst: weigh the evidence on both sides dispassionately and flag what is unknowable",
}

// Label returns the positional pseudonym for agent index i.
func Label(i int) string {
	if i < len(agentLabels) {
		return agentLabels[i]
	}
	return fmt.Sprintf("Agent %d", i+1)
}

// Role returns the analytical stance for agent index i.
func Role(i int) string {
	return roles[i%len(roles)]
}

// LabeledOutput pairs an agent's pseudonym with its output for cross-reading.
type LabeledOutput struct {
	Label   string
	Content string
}

const markdownInstruction = `
**Format your response using Markdown:**
- Use ## headings to organize sections
- Use **bold** for key points
- Use bullet points for clarity`

var r1Template = template.Must(template.New("r1").Parse(`You are analyzing the following thesis:
---
{{.Thesis}}
---
{{if .Context}}
---
**CONTEXT**
{{.Context}}
---
{{end}}
Today's date: {{.Date}}

Your perspective for this analysis: you are {{.Role}}.

Provide your independent analysis. Consider:
- Strengths and weaknesses of the argument
- Missing considerations
- Potential risks and opportunities
- Evidence that would strengthen or weaken the thesis
- Key assumptions and dependencies

Be thorough but concise. Focus on your highest-conviction insights.
` + markdownInstruction))

var r2Template = template.Must(template.New("r2").Parse(`Original thesis:
---
{{.Thesis}}
---

Your first-round analysis:
---
{{.Own}}
---

Other agents' analyses:
{{range .Others}}
**{{.Label}}:**
---
{{.Content}}
---
{{end}}
Review the other analyses and identify:
1. **Points of agreement** - Where do all analyses converge?
2. **Points of disagreement** - Where do analyses diverge? Why?
3. **New considerations** - What did others raise that you find compelling?
4. **Rebuttals** - What do you disagree with and why?
` + markdownInstruction))

var r3Template = template.Must(template.New("r3").Parse(`Original thesis:
---
{{.Thesis}}
---

All agents' outputs after cross-reading:
{{range .Outputs}}
**{{.Label}}:**
---
{{.Content}}
---
{{end}}
Synthesize the deliberation into a comprehensive final verdict.

IMPORTANT: Provide DETAILED, SUBSTANTIVE responses. Do not summarize or abbreviate.

Your response MUST end with a structured JSON block in exactly this format:

` + "```json" + `
{
  "verdict": "Your clear, actionable verdict on the thesis. Be specific and detailed - at least 3-4 sentences explaining the bottom-line conclusion and its key qualifications.",
  "confidence": "high" | "medium" | "low",
  "reasoning": "Comprehensive reasoning behind your verdict: synthesize the key arguments, explain why certain factors were weighted more heavily, address the strongest counterarguments, and justify the confidence level.",
  "support": [
    "Key points supporting the verdict - be specific"
  ],
  "concerns": [
    "Key risks or limitations that qualify the verdict"
  ],
  "conviction": "The single point the agents most strongly agreed on",
  "open_questions": [
    "Unresolved issues that matter most"
  ],
  "divergences": [
    {
      "topic": "Specific topic of disagreement",
      "description": "What the disagreement is about, why it matters, and what's at stake",
      "positions": [
        {"view": "First position with its reasoning and key evidence", "confidence": "high|medium|low"},
        {"view": "Second position with its reasoning", "confidence": "high|medium|low"}
      ]
    }
  ]
}
` + "```" + `

Include every meaningful divergence that exists; each should carry at least two positions.

First, write your synthesis narrative, then end with the JSON block.
` + markdownInstruction))

// BuildR1 builds the independent-analysis prompt for agent roleIndex.
// Context may be empty.
func BuildR1(thesis, context string, roleIndex int) string {
	return execute(r1Template, struct {
		Thesis  string
		Context string
		Date    string
		Role    string
	}{
		Thesis:  thesis,
		Context: context,
		Date:    time.Now().Format("January 2, 2006"),
		Role:    Role(roleIndex),
	})
}

// BuildR2 builds the cross-reading prompt: the agent's own round-1 output
// plus every other agent's output under its positional pseudonym.
func BuildR2(thesis, own string, others []LabeledOutput) string {
	return execute(r2Template, struct {
		Thesis string
		Own    string
		Others []LabeledOutput
	}{
		Thesis: thesis,
		Own:    own,
		Others: others,
	})
}

// BuildR3 builds the synthesis prompt over all round-2 outputs.
func BuildR3(thesis string, outputs []LabeledOutput) string {
	return execute(r3Template, struct {
		Thesis  string
		Outputs []LabeledOutput
	}{
		Thesis:  thesis,
		Outputs: outputs,
	})
}

func execute(t *template.Template, data any) string {
	var buf bytes.Buffer
	// Templates only range and print strings; execution cannot fail on
	// well-formed template text.
	if err := t.Execute(&buf, data); err != nil {
		panic(err)
	}
	return buf.String()
}
