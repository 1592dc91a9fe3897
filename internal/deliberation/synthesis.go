package deliberation

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fallbackVerdictLimit caps the verdict length when it is recovered from
// unstructured prose instead of the JSON block.
const fallbackVerdictLimit = 500

// fencedJSONRe locates a ```json fence; the payload boundary itself is
// found by brace balancing, not by the regexp.
var fencedJSONRe = regexp.MustCompile("```json\\s*\\{")

// rawJSONRe locates an unfenced object that opens with one of the schema's
// verdict keys.
var rawJSONRe = regexp.MustCompile(`\{\s*"(?:verdict|answer)"`)

// ParseSynthesis extracts a DeliberationResult from the synthesis model's
// free-form response. It never fails: extraction is attempted in order
// (fenced JSON block, raw JSON subsequence, unstructured fallback) and the
// first success wins.
func ParseSynthesis(content string) *DeliberationResult {
	if loc := fencedJSONRe.FindStringIndex(content); loc != nil {
		// Back up to the opening brace inside the fence.
		start := strings.IndexByte(content[loc[0]:loc[1]], '{') + loc[0]
		if result, ok := decodePayload(extractBalancedJSON(content[start:])); ok {
			return result
		}
	}

	if loc := rawJSONRe.FindStringIndex(content); loc != nil {
		if result, ok := decodePayload(extractBalancedJSON(content[loc[0]:])); ok {
			return result
		}
	}

	return fallbackResult(content)
}

// extractBalancedJSON returns the substring from the first '{' in s through
// its matching close brace, tracking nesting depth. A naive shortest-match
// pattern would truncate at the first inner '}' when the payload contains
// nested objects or literal braces inside strings; depth tracking does not.
// If the braces never balance, s is returned as-is and the decode fails
// downstream.
func extractBalancedJSON(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return s
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s
}

// synthesisPayload is the wire shape of the structured block. Two schema
// generations coexist in the wild: the canonical verdict-centric one and a
// legacy answer-centric one ("answer", "key_agreements"). Both decode; the
// aliases are read-only compatibility and are never emitted.
type synthesisPayload struct {
	Verdict       string       `json:"verdict"`
	Answer        string       `json:"answer"` // legacy alias for verdict
	Confidence    string       `json:"confidence"`
	Reasoning     string       `json:"reasoning"`
	Support       []string     `json:"support"`
	KeyAgreements []string     `json:"key_agreements"` // legacy alias for support
	Concerns      []string     `json:"concerns"`
	Conviction    string       `json:"conviction"`
	OpenQuestions []string     `json:"open_questions"`
	Divergences   []divergence `json:"divergences"`
}

type divergence struct {
	Topic       string     `json:"topic"`
	Description string     `json:"description"`
	Positions   []position `json:"positions"`
}

type position struct {
	View       string `json:"view"`
	Confidence string `json:"confidence"`
}

// decodePayload decodes a candidate JSON string into a result. Missing keys
// take documented defaults (empty strings, empty lists) and an out-of-range
// confidence coerces to medium rather than failing.
func decodePayload(s string) (*DeliberationResult, bool) {
	var payload synthesisPayload
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, false
	}

	verdict := payload.Verdict
	if verdict == "" {
		verdict = payload.Answer
	}
	if verdict == "" {
		verdict = "No verdict provided"
	}

	support := payload.Support
	if len(support) == 0 {
		support = payload.KeyAgreements
	}

	divergences := make([]Divergence, 0, len(payload.Divergences))
	for _, d := range payload.Divergences {
		positions := make([]Position, 0, len(d.Positions))
		for _, p := range d.Positions {
			positions = append(positions, Position{
				View:       p.View,
				Confidence: ParseConfidence(p.Confidence),
			})
		}
		divergences = append(divergences, Divergence{
			Topic:       d.Topic,
			Description: d.Description,
			Positions:   positions,
		})
	}

	return &DeliberationResult{
		Verdict:         verdict,
		Confidence:      ParseConfidence(payload.Confidence),
		Reasoning:       payload.Reasoning,
		Support:         emptyIfNil(support),
		Concerns:        emptyIfNil(payload.Concerns),
		Conviction:      payload.Conviction,
		OpenQuestions:   emptyIfNil(payload.OpenQuestions),
		Divergences:     divergences,
		RoundsCompleted: 3,
	}, true
}

// fallbackResult recovers what it can from unstructured prose: the first
// non-empty paragraph becomes the verdict, everything else defaults.
func fallbackResult(content string) *DeliberationResult {
	verdict := "Analysis complete - see full content"
	for _, p := range strings.Split(content, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			verdict = p
			break
		}
	}
	if len(verdict) > fallbackVerdictLimit {
		verdict = verdict[:fallbackVerdictLimit]
	}

	return &DeliberationResult{
		Verdict:         verdict,
		Confidence:      ConfidenceMedium,
		Support:         []string{},
		Concerns:        []string{},
		OpenQuestions:   []string{},
		Divergences:     []Divergence{},
		RoundsCompleted: 3,
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
