package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/futusense/futusense/internal/core"
	"github.com/futusense/futusense/internal/indicator"
)

// Validation bounds for agent output.
const (
	minConfidence = 0.5
	maxConfidence = 0.95
	maxRationale  = 5

	// Ceiling applied when fundamentals are missing for the market agent.
	degradedFundamentalsCeiling = 0.75
)

// payload is the validated shape of a raw agent response. Exactly the
// contract fields; anything else fails validation.
type payload struct {
	Index      float64
	Confidence float64
	Rationale  []string
}

type rawPayload struct {
	Index      *float64 `json:"index"`
	Confidence *float64 `json:"confidence"`
	Rationale  []string `json:"rationale"`
}

// extractJSON strips markdown fences and salvages the outermost object
// from free text, so a model that wraps its JSON does not force a
// fallback.
func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		parts := strings.Split(s, "```")
		if len(parts) >= 3 {
			s = strings.TrimSpace(parts[1])
			s = strings.TrimSpace(strings.TrimPrefix(s, "json"))
		}
	}
	i := strings.Index(s, "{")
	j := strings.LastIndex(s, "}")
	if i >= 0 && j > i {
		return s[i : j+1]
	}
	return s
}

// parsePayload enforces the agent output contract on raw LLM text:
// a JSON object with index, confidence and rationale, nothing else.
func parsePayload(text string) (payload, error) {
	var raw rawPayload
	dec := json.NewDecoder(bytes.NewReader([]byte(extractJSON(text))))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return payload{}, core.WrapError(core.ErrValidationFailed, err)
	}
	if raw.Index == nil {
		return payload{}, core.WrapError(core.ErrValidationFailed, fmt.Errorf("missing index"))
	}
	if raw.Confidence == nil {
		return payload{}, core.WrapError(core.ErrValidationFailed, fmt.Errorf("missing confidence"))
	}
	return payload{
		Index:      *raw.Index,
		Confidence: *raw.Confidence,
		Rationale:  raw.Rationale,
	}, nil
}

// numberRun matches a digit sequence together with any minus signs or
// decimal points stuck to it, so "3.2", "-17" and "2026-08-29" vanish
// whole. A free-text rationale must not assert figures the upstream
// data never supplied.
var (
	numberRun = regexp.MustCompile(`[-.]*[0-9][0-9.\-]*`)
	spaceRun  = regexp.MustCompile(`\s{2,}`)
)

// sanitizeLine removes every numeric run from one rationale line.
// Idempotent: a sanitized line passes through unchanged.
func sanitizeLine(s string) string {
	s = numberRun.ReplaceAllString(s, "")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// sanitizeRationale sanitizes, drops emptied lines and truncates.
func sanitizeRationale(lines []string) []string {
	out := make([]string, 0, maxRationale)
	for _, line := range lines {
		if len(out) == maxRationale {
			break
		}
		if s := sanitizeLine(line); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// finalize applies the output invariants to any candidate result,
// whichever path produced it: index and confidence clamped, rationale
// sanitized and truncated. Pure.
func finalize(r core.AgentResult) core.AgentResult {
	r.Index = indicator.Clamp(r.Index, -1, 1)
	r.Confidence = indicator.Clamp(r.Confidence, minConfidence, maxConfidence)
	r.Rationale = sanitizeRationale(r.Rationale)
	return r
}

// validateLLM turns raw LLM text into a validated result or an error
// that routes the agent to its heuristic path. Pure given its input;
// never retries.
func validateLLM(text string) (core.AgentResult, error) {
	p, err := parsePayload(text)
	if err != nil {
		return core.AgentResult{}, err
	}
	return finalize(core.AgentResult{
		Status:     core.StatusOK,
		Index:      p.Index,
		Confidence: p.Confidence,
		Rationale:  p.Rationale,
		Mode:       core.ModeLLM,
	}), nil
}
