// Package backend formats model requests, sends them and parses the replies.
// Each Kind maps to one call shape: chat (message list), invoke (single
// string) or template (rendered prompt template).
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/skosovsky/toolrelay"
)

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat-completion request.
type Message struct {
	Role    Role
	Content string
}

// ChatModel is a chat-completion client.
type ChatModel interface {
	Chat(ctx context.Context, modelID string, messages []Message) (string, error)
}

// TextModel is a single-string completion client.
type TextModel interface {
	Invoke(ctx context.Context, text string) (string, error)
}

// Model is implemented by clients that can serve every backend kind.
type Model interface {
	ChatModel
	TextModel
}

// Phase identifies which of the three model calls of a request is being built.
type Phase int

const (
	// PhaseSelect asks the model which tool to invoke.
	PhaseSelect Phase = iota
	// PhaseSynthesize asks for the final answer given tool results.
	PhaseSynthesize
	// PhaseRepair asks for a corrected reply after a malformed one.
	PhaseRepair
)

func (p Phase) String() string {
	switch p {
	case PhaseSelect:
		return "select"
	case PhaseSynthesize:
		return "synthesize"
	case PhaseRepair:
		return "repair"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Request carries everything a Backend needs to format one model call.
// Catalog is used by PhaseSelect and PhaseRepair, Invocations and Results by
// PhaseSynthesize, ErrorText by PhaseRepair.
type Request struct {
	Phase       Phase
	Catalog     string
	Prompt      string
	Invocations []toolrelay.Invocation
	Results     []toolrelay.Result
	ErrorText   string
}

// Payload is a formatted request. Chat backends fill Messages, the others Text.
type Payload struct {
	Messages []Message
	Text     string
}

// Backend is one model call shape.
type Backend interface {
	Kind() Kind
	FormatRequest(req Request) (Payload, error)
	Send(ctx context.Context, p Payload) (string, error)
	ParseResponse(raw string) Reply
}

var errNilModel = errors.New("backend: model must not be nil")

// New returns the Backend variant for kind. modelID is passed to chat
// requests; text backends are already bound to their model.
func New(kind Kind, model Model, modelID string) (Backend, error) {
	if model == nil {
		return nil, errNilModel
	}
	switch kind {
	case KindDefault:
		return NewChat(model, modelID), nil
	case KindOllama, KindWatsonx, KindLlamaCpp:
		return NewInvoke(kind, model), nil
	case KindAnthropic:
		t, err := NewTemplate(model)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
}
