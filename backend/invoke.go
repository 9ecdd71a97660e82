package backend

import (
	"context"
	"errors"
	"fmt"
)

// Invoke sends one prompt string per call and parses replies leniently.
// It serves KindOllama, KindWatsonx and KindLlamaCpp, which differ only in
// the client behind the TextModel.
type Invoke struct {
	kind  Kind
	model TextModel
}

// NewInvoke returns the single-string variant for kind.
func NewInvoke(kind Kind, model TextModel) *Invoke {
	return &Invoke{kind: kind, model: model}
}

func (b *Invoke) Kind() Kind { return b.kind }

// FormatRequest renders "<instruction>\nUser: <prompt>\nAssistant:".
func (b *Invoke) FormatRequest(req Request) (Payload, error) {
	var text string
	switch req.Phase {
	case PhaseSelect:
		text = fmt.Sprintf("%s\nUser: %s\nAssistant:", ToolPrompt(req.Catalog), req.Prompt)
	case PhaseSynthesize:
		sys, err := synthesisContext(req.Invocations, req.Results)
		if err != nil {
			return Payload{}, err
		}
		text = fmt.Sprintf("%s\nUser: %s\nAssistant:", sys, req.Prompt)
	case PhaseRepair:
		text = fmt.Sprintf("%s\nExample of valid JSON format: %s\n%s\nAssistant:",
			repairInstruction, ToolPrompt(req.Catalog), repairUserMessage(req.ErrorText, req.Prompt))
	default:
		return Payload{}, fmt.Errorf("%s backend: unsupported phase %s", b.kind, req.Phase)
	}
	return Payload{Text: text}, nil
}

func (b *Invoke) Send(ctx context.Context, p Payload) (string, error) {
	if p.Text == "" {
		return "", errors.New(string(b.kind) + " backend: empty prompt")
	}
	return b.model.Invoke(ctx, p.Text)
}

func (b *Invoke) ParseResponse(raw string) Reply { return ParseLenient(raw) }
