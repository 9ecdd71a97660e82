// Package agent runs user requests through a backend and the tool registry,
// and keeps per-agent conversation transcripts.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/skosovsky/toolrelay"
	"github.com/skosovsky/toolrelay/backend"
)

// Fixed answers returned instead of errors.
const (
	ApologyMalformed  = "Apologies, I encountered an error while processing your request. Please try rephrasing your question."
	ApologyUnexpected = "Apologies, an unexpected error occurred while processing your request. Please try again later."
)

// Processor turns one prompt into one answer: select a tool, invoke it,
// synthesize a reply, repairing a malformed selection at most once.
type Processor struct {
	registry *toolrelay.Registry
	backend  backend.Backend
	logger   *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger (slog.Default() when unset or nil).
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProcessor returns a Processor using reg for tool lookup and b for model calls.
func NewProcessor(reg *toolrelay.Registry, b backend.Backend, opts ...Option) (*Processor, error) {
	if reg == nil {
		return nil, errors.New("agent: registry must not be nil")
	}
	if b == nil {
		return nil, errors.New("agent: backend must not be nil")
	}
	p := &Processor{registry: reg, backend: b, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Registry returns the registry the processor invokes tools from.
func (p *Processor) Registry() *toolrelay.Registry { return p.registry }

// Request sends the tool-selection call for prompt with a freshly built
// catalog and returns the raw reply with its parsed form.
func (p *Processor) Request(ctx context.Context, prompt string) (string, backend.Reply, error) {
	catalog, err := p.registry.Catalog()
	if err != nil {
		return "", backend.Reply{}, err
	}
	raw, err := p.call(ctx, backend.Request{Phase: backend.PhaseSelect, Catalog: catalog, Prompt: prompt})
	if err != nil {
		return "", backend.Reply{}, err
	}
	reply := p.backend.ParseResponse(raw)
	p.logger.DebugContext(ctx, "model reply", "phase", backend.PhaseSelect, "kind", reply.Kind, "invocations", len(reply.Invocations))
	return raw, reply, nil
}

// Synthesize asks the model for the final answer given the invocations and
// their results. It reports no answer when results is empty.
func (p *Processor) Synthesize(ctx context.Context, invs []toolrelay.Invocation, results []toolrelay.Result, prompt string) (string, bool, error) {
	if len(results) == 0 {
		return "", false, nil
	}
	answer, err := p.call(ctx, backend.Request{
		Phase:       backend.PhaseSynthesize,
		Prompt:      prompt,
		Invocations: invs,
		Results:     results,
	})
	if err != nil {
		return "", false, err
	}
	return answer, true, nil
}

// Repair makes the single corrective call after a malformed reply. A second
// malformed reply yields ApologyMalformed; Repair never calls itself.
func (p *Processor) Repair(ctx context.Context, cause error, prompt string) (string, bool) {
	p.logger.WarnContext(ctx, "malformed model reply, requesting repair", "error", cause)
	catalog, err := p.registry.Catalog()
	if err != nil {
		return p.unexpected(ctx, err)
	}
	raw, err := p.call(ctx, backend.Request{
		Phase:     backend.PhaseRepair,
		Catalog:   catalog,
		Prompt:    prompt,
		ErrorText: errorText(cause),
	})
	if err != nil {
		return p.unexpected(ctx, err)
	}
	reply := p.backend.ParseResponse(raw)
	p.logger.DebugContext(ctx, "model reply", "phase", backend.PhaseRepair, "kind", reply.Kind, "invocations", len(reply.Invocations))
	switch reply.Kind {
	case backend.MalformedReply:
		p.logger.WarnContext(ctx, "repair reply still malformed", "error", reply.Err)
		return ApologyMalformed, true
	case backend.NoToolRequested:
		return "", false
	}
	return p.answer(ctx, reply.Invocations, prompt)
}

// Process runs the whole request. It never fails: unexpected errors and
// panics are logged and answered with ApologyUnexpected. The bool is false
// when the model requested no tool and there is nothing to say.
func (p *Processor) Process(ctx context.Context, prompt string) (answer string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			answer, ok = p.unexpected(ctx, fmt.Errorf("panic: %v", r))
		}
	}()
	_, reply, err := p.Request(ctx, prompt)
	if err != nil {
		return p.unexpected(ctx, err)
	}
	switch reply.Kind {
	case backend.NoToolRequested:
		return "", false
	case backend.MalformedReply:
		return p.Repair(ctx, reply.Err, prompt)
	}
	return p.answer(ctx, reply.Invocations, prompt)
}

func (p *Processor) answer(ctx context.Context, invs []toolrelay.Invocation, prompt string) (string, bool) {
	results := p.registry.InvokeAll(ctx, invs)
	for _, r := range results {
		if !r.OK() {
			p.logger.InfoContext(ctx, "tool invocation failed", "tool", r.ToolName, "error", r.Error)
		}
	}
	text, ok, err := p.Synthesize(ctx, invs, results, prompt)
	if err != nil {
		return p.unexpected(ctx, err)
	}
	return text, ok
}

func (p *Processor) call(ctx context.Context, req backend.Request) (string, error) {
	payload, err := p.backend.FormatRequest(req)
	if err != nil {
		return "", fmt.Errorf("format %s request: %w", req.Phase, err)
	}
	raw, err := p.backend.Send(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("%s %s call: %w", p.backend.Kind(), req.Phase, err)
	}
	return raw, nil
}

func (p *Processor) unexpected(ctx context.Context, err error) (string, bool) {
	p.logger.ErrorContext(ctx, "request failed", "error", err)
	return ApologyUnexpected, true
}

// errorText is the decode error shown to the model, without the package prefix.
func errorText(err error) string {
	if err == nil {
		return "malformed JSON"
	}
	return err.Error()
}
