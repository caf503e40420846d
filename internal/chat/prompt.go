package chat

import "strings"

// systemPrompt frames every completion request. The retrieved passages
// are injected into the user prompt, not here.
const systemPrompt = "You are a helpful AI assistant with access to previous conversation context. Use this context to provide more relevant and consistent responses."

// DefaultContextCharBudget bounds the total size of retrieved context
// injected into a prompt.
const DefaultContextCharBudget = 4000

// selectContext fills the character budget with passages in rank order.
// A passage that would overflow the budget ends selection; if the very
// first passage alone exceeds the budget it is truncated rather than
// dropped, so retrieval is never silently discarded. The newline that
// joins passages counts against the budget.
func selectContext(passages []string, budget int) []string {
	if budget <= 0 {
		budget = DefaultContextCharBudget
	}

	var selected []string
	used := 0
	for i, p := range passages {
		if p == "" {
			continue
		}
		cost := len(p)
		if len(selected) > 0 {
			cost++ // joining newline
		}
		if used+cost > budget {
			if i == 0 {
				selected = append(selected, truncateRunes(p, budget))
			}
			break
		}
		selected = append(selected, p)
		used += cost
	}
	return selected
}

// buildUserPrompt assembles the prompt sent as the user message.
// With context:
//
//	Context:
//	<passages joined by newline>
//
//	User: <message>
//	Assistant:
//
// Without context the Context block is omitted entirely.
func buildUserPrompt(message string, contextTexts []string) string {
	var b strings.Builder
	if len(contextTexts) > 0 {
		b.WriteString("Context:\n")
		b.WriteString(strings.Join(contextTexts, "\n"))
		b.WriteString("\n\n")
	}
	b.WriteString("User: ")
	b.WriteString(message)
	b.WriteString("\nAssistant:")
	return b.String()
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
