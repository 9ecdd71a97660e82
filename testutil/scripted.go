package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/skosovsky/toolrelay/backend"
)

// ErrScriptExhausted is returned once every scripted step has been consumed.
var ErrScriptExhausted = errors.New("scripted model: no replies left")

// ModelCall records one request received by a ScriptedModel. Chat calls fill
// ModelID and Messages, Invoke calls fill Text.
type ModelCall struct {
	ModelID  string
	Messages []backend.Message
	Text     string
}

type step struct {
	reply string
	err   error
}

// ScriptedModel is a backend.Model that answers from a fixed script, one step
// per call, and records every call it receives.
type ScriptedModel struct {
	mu    sync.Mutex
	steps []step
	calls []ModelCall
}

var _ backend.Model = (*ScriptedModel)(nil)

// NewScriptedModel returns a model that replies with replies in order.
func NewScriptedModel(replies ...string) *ScriptedModel {
	m := &ScriptedModel{}
	for _, r := range replies {
		m.steps = append(m.steps, step{reply: r})
	}
	return m
}

// Reply appends a successful step.
func (m *ScriptedModel) Reply(text string) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, step{reply: text})
	return m
}

// Fail appends a step that returns err.
func (m *ScriptedModel) Fail(err error) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, step{err: err})
	return m
}

// Chat implements backend.ChatModel.
func (m *ScriptedModel) Chat(_ context.Context, modelID string, messages []backend.Message) (string, error) {
	return m.next(ModelCall{ModelID: modelID, Messages: append([]backend.Message(nil), messages...)})
}

// Invoke implements backend.TextModel.
func (m *ScriptedModel) Invoke(_ context.Context, text string) (string, error) {
	return m.next(ModelCall{Text: text})
}

func (m *ScriptedModel) next(call ModelCall) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	if len(m.steps) == 0 {
		return "", ErrScriptExhausted
	}
	s := m.steps[0]
	m.steps = m.steps[1:]
	return s.reply, s.err
}

// Calls returns a copy of the recorded calls.
func (m *ScriptedModel) Calls() []ModelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ModelCall(nil), m.calls...)
}

// CallCount reports how many calls were received.
func (m *ScriptedModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Remaining reports how many scripted steps are left.
func (m *ScriptedModel) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.steps)
}
