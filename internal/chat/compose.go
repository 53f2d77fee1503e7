package chat

import (
	"fmt"
	"strings"
)

// FinalSentinel separates step-by-step reasoning from the final
// answer in reasoning-model output.
const FinalSentinel = "---FINAL---"

// reasoningTemplate wraps the literal user text for reasoning models.
const reasoningTemplate = "Think through the following request step by step. " +
	"Show your reasoning, then write %s on its own line followed by your final answer.\n\nRequest: %s"

// composeUserTurn builds the user turn content for a request.
// Reasoning models get the step-by-step wrapper; everything else gets
// the sanitized prompt verbatim.
func composeUserTurn(prompt string, reasoning bool) string {
	if !reasoning {
		return prompt
	}
	return fmt.Sprintf(reasoningTemplate, FinalSentinel, prompt)
}

// ExtractFinal returns the text after the last sentinel occurrence,
// trimmed. Replies without a sentinel are returned whole, so models
// that ignore the convention still produce a usable answer.
func ExtractFinal(reply string) string {
	if idx := strings.LastIndex(reply, FinalSentinel); idx >= 0 {
		return strings.TrimSpace(reply[idx+len(FinalSentinel):])
	}
	return strings.TrimSpace(reply)
}

// BuildPersona assembles the system preamble seeded into new
// sessions: the persona text, optionally followed by up to
// maxExcerpts knowledge excerpts.
func BuildPersona(persona string, excerpts []string, maxExcerpts int) string {
	if maxExcerpts <= 0 || len(excerpts) == 0 {
		return persona
	}
	if len(excerpts) > maxExcerpts {
		excerpts = excerpts[:maxExcerpts]
	}

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nReference material:\n")
	for _, e := range excerpts {
		b.WriteString("\n")
		b.WriteString(e)
	}
	return b.String()
}
