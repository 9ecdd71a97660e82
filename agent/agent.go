package agent

import (
	"context"
	"strings"
)

// Turn is one exchange of the transcript.
type Turn struct {
	User  string
	Agent string
}

// Agent is a conversational front end over a Processor. Each Chat call sends
// the full transcript as context. An Agent is not safe for concurrent use.
type Agent struct {
	processor *Processor
	history   []Turn
}

// New returns an Agent with an empty transcript.
func New(p *Processor) *Agent {
	return &Agent{processor: p}
}

// Chat answers input and appends the exchange to the transcript. When the
// model requests no tool, the answer is empty and ok is false; the turn is
// still recorded.
func (a *Agent) Chat(ctx context.Context, input string) (string, bool) {
	prompt := a.Prompt(input)
	a.processor.logger.DebugContext(ctx, "agent prompt", "turns", len(a.history), "prompt", prompt)
	answer, ok := a.processor.Process(ctx, prompt)
	a.history = append(a.history, Turn{User: input, Agent: answer})
	return answer, ok
}

// Prompt renders the transcript followed by input, as sent to the model.
func (a *Agent) Prompt(input string) string {
	var b strings.Builder
	b.WriteString("Conversation history:\n")
	for _, t := range a.history {
		b.WriteString("User: ")
		b.WriteString(t.User)
		b.WriteString("\nAgent: ")
		b.WriteString(t.Agent)
		b.WriteString("\n")
	}
	b.WriteString("User: ")
	b.WriteString(input)
	b.WriteString("\nAgent:")
	return b.String()
}

// History returns a copy of the transcript.
func (a *Agent) History() []Turn {
	return append([]Turn(nil), a.history...)
}

// ClearHistory empties the transcript.
func (a *Agent) ClearHistory() {
	a.history = nil
}
