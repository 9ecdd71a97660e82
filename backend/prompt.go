package backend

import (
	"encoding/json"
	"fmt"

	"github.com/skosovsky/toolrelay"
)

const (
	synthesisInstruction = "Based on the data retrieved from the following tool invocations, provide an appropriate response to the user's question(s)."
	repairInstruction    = "The previous response contained malformed JSON. Please review the error carefully and provide a valid JSON response."
)

// ToolPrompt is the select instruction: the capability catalog followed by the
// reply format the model must use.
func ToolPrompt(catalog string) string {
	return fmt.Sprintf(`Available tools:
%s

Analyze the user's input to determine which tool (if any) should be invoked.

If a tool is relevant, provide its name and the necessary parameters in JSON format:
{
    "tool": "<tool_name>",
    "tool_input": {"<param1>": <value1>, "<param2>": <value2>, ...}
}

It is important to provide the correct tool name and parameters to ensure the tool is invoked correctly.
Reply with the JSON only.
If no tool is relevant, respond with an empty JSON object:
{}`, catalog)
}

// renderInvocations renders the invocations and results embedded in the
// synthesis prompt.
func renderInvocations(invs []toolrelay.Invocation, results []toolrelay.Result) (string, string, error) {
	if invs == nil {
		invs = []toolrelay.Invocation{}
	}
	if results == nil {
		results = []toolrelay.Result{}
	}
	i, err := json.Marshal(invs)
	if err != nil {
		return "", "", fmt.Errorf("marshal invocations: %w", err)
	}
	r, err := json.Marshal(results)
	if err != nil {
		return "", "", fmt.Errorf("marshal tool results: %w", err)
	}
	return string(i), string(r), nil
}

func synthesisContext(invs []toolrelay.Invocation, results []toolrelay.Result) (string, error) {
	i, r, err := renderInvocations(invs, results)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s \n **** \n The result of invoking %s is %s.", synthesisInstruction, i, r), nil
}

func repairUserMessage(errText, prompt string) string {
	return fmt.Sprintf("Error: %s\nOriginal prompt: %s", errText, prompt)
}
