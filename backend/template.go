package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikolalohinski/gonja/v2"
	"github.com/nikolalohinski/gonja/v2/exec"
)

const (
	selectTemplate = `{{ instruction|safe }}

Question: {{ question|safe }}
Answer: Let's think step by step.`

	synthesizeTemplate = `Question: {{ instruction|safe }}

The result of invoking {{ tool_invocations|safe }} is {{ tool_results|safe }}.

Original user question: {{ question|safe }}

Answer: Let's think step by step.`

	repairTemplate = `Question: {{ instruction|safe }}

Example of valid JSON format: {{ tool_prompt|safe }}

Error: {{ error|safe }}
Original prompt: {{ question|safe }}

Answer: Let's think step by step.`
)

// Template renders a prompt template per phase and parses replies leniently.
// It serves KindAnthropic.
type Template struct {
	model      TextModel
	selectT    *exec.Template
	synthesize *exec.Template
	repair     *exec.Template
}

// NewTemplate compiles the phase templates and returns the template variant.
func NewTemplate(model TextModel) (*Template, error) {
	t := &Template{model: model}
	for _, tc := range []struct {
		dst **exec.Template
		src string
		nm  string
	}{
		{&t.selectT, selectTemplate, "select"},
		{&t.synthesize, synthesizeTemplate, "synthesize"},
		{&t.repair, repairTemplate, "repair"},
	} {
		tpl, err := gonja.FromString(tc.src)
		if err != nil {
			return nil, fmt.Errorf("compile %s template: %w", tc.nm, err)
		}
		*tc.dst = tpl
	}
	return t, nil
}

func (t *Template) Kind() Kind { return KindAnthropic }

// FormatRequest renders the template for req.Phase.
func (t *Template) FormatRequest(req Request) (Payload, error) {
	var (
		tpl  *exec.Template
		vars map[string]any
	)
	switch req.Phase {
	case PhaseSelect:
		tpl = t.selectT
		vars = map[string]any{
			"instruction": ToolPrompt(req.Catalog),
			"question":    req.Prompt,
		}
	case PhaseSynthesize:
		invs, results, err := renderInvocations(req.Invocations, req.Results)
		if err != nil {
			return Payload{}, err
		}
		tpl = t.synthesize
		vars = map[string]any{
			"instruction":      synthesisInstruction,
			"tool_invocations": invs,
			"tool_results":     results,
			"question":         req.Prompt,
		}
	case PhaseRepair:
		tpl = t.repair
		vars = map[string]any{
			"instruction": repairInstruction,
			"tool_prompt": ToolPrompt(req.Catalog),
			"error":       req.ErrorText,
			"question":    req.Prompt,
		}
	default:
		return Payload{}, fmt.Errorf("anthropic backend: unsupported phase %s", req.Phase)
	}
	text, err := tpl.ExecuteToString(exec.NewContext(vars))
	if err != nil {
		return Payload{}, fmt.Errorf("render %s template: %w", req.Phase, err)
	}
	return Payload{Text: text}, nil
}

func (t *Template) Send(ctx context.Context, p Payload) (string, error) {
	if p.Text == "" {
		return "", errors.New("anthropic backend: empty prompt")
	}
	return t.model.Invoke(ctx, p.Text)
}

func (t *Template) ParseResponse(raw string) Reply { return ParseLenient(raw) }
