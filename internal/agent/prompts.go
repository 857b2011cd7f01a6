package agent

import (
	"fmt"
	"strings"
)

func systemPrompt(toolNames []string) string {
	base := strings.TrimSpace(`You are olla, a terminal assistant backed by a local model server.

Requirements:
- Answer briefly and factually in plain text.
- Do not reveal chain-of-thought.
- If you do not know something, say so.`)
	if len(toolNames) == 0 {
		return base
	}
	return base + "\n\n" + strings.TrimSpace(fmt.Sprintf(`You can call tools: %s.
- Call a tool when it gives a more reliable answer than guessing.
- Keep tool arguments minimal and use the documented parameter names.
- After tool results arrive, answer using them.`, strings.Join(toolNames, ", ")))
}

func maxStepsPrompt() string {
	return "Max steps reached. Provide the best possible partial answer without calling tools and include a warning."
}
