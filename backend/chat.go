package backend

import (
	"context"
	"errors"
	"fmt"
)

// Chat sends chat-completion message lists and parses replies strictly.
type Chat struct {
	model   ChatModel
	modelID string
}

// NewChat returns the chat variant used by KindDefault.
func NewChat(model ChatModel, modelID string) *Chat {
	return &Chat{model: model, modelID: modelID}
}

func (c *Chat) Kind() Kind { return KindDefault }

// FormatRequest builds the message list for req.Phase.
func (c *Chat) FormatRequest(req Request) (Payload, error) {
	switch req.Phase {
	case PhaseSelect:
		return Payload{Messages: []Message{
			{Role: RoleSystem, Content: ToolPrompt(req.Catalog)},
			{Role: RoleUser, Content: req.Prompt},
		}}, nil
	case PhaseSynthesize:
		sys, err := synthesisContext(req.Invocations, req.Results)
		if err != nil {
			return Payload{}, err
		}
		return Payload{Messages: []Message{
			{Role: RoleSystem, Content: sys},
			{Role: RoleUser, Content: req.Prompt},
		}}, nil
	case PhaseRepair:
		return Payload{Messages: []Message{
			{Role: RoleSystem, Content: repairInstruction},
			{Role: RoleSystem, Content: "Example of valid JSON format: " + ToolPrompt(req.Catalog)},
			{Role: RoleUser, Content: repairUserMessage(req.ErrorText, req.Prompt)},
		}}, nil
	}
	return Payload{}, fmt.Errorf("chat backend: unsupported phase %s", req.Phase)
}

// Send passes the message list and model identifier to the chat model.
func (c *Chat) Send(ctx context.Context, p Payload) (string, error) {
	if len(p.Messages) == 0 {
		return "", errors.New("chat backend: empty message list")
	}
	return c.model.Chat(ctx, c.modelID, p.Messages)
}

func (c *Chat) ParseResponse(raw string) Reply { return ParseStrict(raw) }
