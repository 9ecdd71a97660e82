package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/openai"
	"charm.land/fantasy/providers/openaicompat"
)

// Default OpenAI-compatible endpoints for locally served models.
const (
	DefaultOllamaURL   = "http://localhost:11434/v1"
	DefaultLlamaCppURL = "http://localhost:8080/v1"
)

// ModelConfig selects and authenticates the provider behind a FantasyModel.
type ModelConfig struct {
	Kind    Kind
	APIKey  string
	Model   string
	BaseURL string
}

// FantasyModel adapts a fantasy provider to ChatModel and TextModel.
// Language models are resolved per model identifier on first use.
type FantasyModel struct {
	provider     fantasy.Provider
	defaultModel string

	mu     sync.Mutex
	models map[string]fantasy.LanguageModel
}

var _ Model = (*FantasyModel)(nil)

// NewFantasyModel builds the provider matching cfg.Kind: openai for the
// default backend, anthropic for the anthropic backend, and an
// OpenAI-compatible endpoint for ollama, llama-cpp and watsonx.
func NewFantasyModel(ctx context.Context, cfg ModelConfig) (*FantasyModel, error) {
	if cfg.Model == "" {
		return nil, errors.New("fantasy: model is required")
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("fantasy: create provider %q: %w", cfg.Kind, err)
	}
	m := &FantasyModel{
		provider:     provider,
		defaultModel: cfg.Model,
		models:       make(map[string]fantasy.LanguageModel),
	}
	// Resolve the configured model eagerly so bad names fail at startup.
	if _, err := m.languageModel(ctx, cfg.Model); err != nil {
		return nil, err
	}
	return m, nil
}

func newProvider(cfg ModelConfig) (fantasy.Provider, error) {
	switch cfg.Kind {
	case KindDefault:
		opts := []openai.Option{openai.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(opts...)
	case KindAnthropic:
		opts := []anthropic.Option{anthropic.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		return anthropic.New(opts...)
	case KindOllama, KindLlamaCpp, KindWatsonx:
		baseURL, err := compatBaseURL(cfg)
		if err != nil {
			return nil, err
		}
		return openaicompat.New(
			openaicompat.WithAPIKey(cfg.APIKey),
			openaicompat.WithBaseURL(baseURL),
			openaicompat.WithName(string(cfg.Kind)),
		)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(cfg.Kind))
}

func compatBaseURL(cfg ModelConfig) (string, error) {
	if cfg.BaseURL != "" {
		return cfg.BaseURL, nil
	}
	switch cfg.Kind {
	case KindOllama:
		return DefaultOllamaURL, nil
	case KindLlamaCpp:
		return DefaultLlamaCppURL, nil
	}
	return "", fmt.Errorf("%s requires a base URL", cfg.Kind)
}

func (m *FantasyModel) languageModel(ctx context.Context, modelID string) (fantasy.LanguageModel, error) {
	if modelID == "" {
		modelID = m.defaultModel
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if lm, ok := m.models[modelID]; ok {
		return lm, nil
	}
	lm, err := m.provider.LanguageModel(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("fantasy: create model %q: %w", modelID, err)
	}
	m.models[modelID] = lm
	return lm, nil
}

// Chat sends messages to modelID (the configured model when empty). System
// messages become the system prompt; the last message must be a user message.
func (m *FantasyModel) Chat(ctx context.Context, modelID string, messages []Message) (string, error) {
	lm, err := m.languageModel(ctx, modelID)
	if err != nil {
		return "", err
	}
	var (
		system  []string
		history []fantasy.Message
	)
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, msg.Content)
		case RoleUser:
			history = append(history, fantasy.NewUserMessage(msg.Content))
		case RoleAssistant:
			history = append(history, fantasy.Message{
				Role:    fantasy.MessageRoleAssistant,
				Content: []fantasy.MessagePart{fantasy.TextPart{Text: msg.Content}},
			})
		default:
			return "", fmt.Errorf("fantasy: unsupported message role %q", msg.Role)
		}
	}
	n := len(messages)
	if n == 0 || messages[n-1].Role != RoleUser {
		return "", errors.New("fantasy: last message must be a user message")
	}
	prompt := messages[n-1].Content
	history = history[:len(history)-1]

	var opts []fantasy.AgentOption
	if len(system) > 0 {
		opts = append(opts, fantasy.WithSystemPrompt(strings.Join(system, "\n\n")))
	}
	agent := fantasy.NewAgent(lm, opts...)
	result, err := agent.Generate(ctx, fantasy.AgentCall{
		Prompt:   prompt,
		Messages: history,
	})
	if err != nil {
		return "", fmt.Errorf("fantasy: generate: %w", err)
	}
	return result.Response.Content.Text(), nil
}

// Invoke sends text as a single user message to the configured model.
func (m *FantasyModel) Invoke(ctx context.Context, text string) (string, error) {
	return m.Chat(ctx, "", []Message{{Role: RoleUser, Content: text}})
}
