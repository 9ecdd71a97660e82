package agent

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skosovsky/toolrelay"
	"github.com/skosovsky/toolrelay/backend"
	"github.com/skosovsky/toolrelay/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const weatherCall = `{"tool": "fetch_weather", "tool_input": {"location": "Boston"}}`

func weatherTool(t *testing.T) *testutil.MockTool {
	t.Helper()
	return &testutil.MockTool{
		NameVal:    "fetch_weather",
		DescVal:    "Retrieves the current weather for a given location.",
		ReturnsVal: "string",
		ParamsVal: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{"type": "string"},
			},
		},
		CallFn: func(_ context.Context, input map[string]any) (any, error) {
			return "Sunny in " + input["location"].(string), nil
		},
	}
}

func newProcessor(t *testing.T, kind backend.Kind, model *testutil.ScriptedModel, tools ...toolrelay.Tool) (*Processor, *bytes.Buffer) {
	t.Helper()
	b, err := backend.New(kind, model, "test-model")
	require.NoError(t, err)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p, err := NewProcessor(testutil.NewTestRegistry(tools...), b, WithLogger(logger))
	require.NoError(t, err)
	return p, &logs
}

func TestNewProcessor_Validation(t *testing.T) {
	b, err := backend.New(backend.KindDefault, testutil.NewScriptedModel(), "m")
	require.NoError(t, err)
	_, err = NewProcessor(nil, b)
	require.Error(t, err)
	_, err = NewProcessor(toolrelay.NewRegistry(), nil)
	require.Error(t, err)
}

func TestProcess_ToolThenSynthesis(t *testing.T) {
	model := testutil.NewScriptedModel(weatherCall, "It is sunny in Boston.")
	tool := weatherTool(t)
	p, _ := newProcessor(t, backend.KindDefault, model, tool)

	answer, ok := p.Process(context.Background(), "What's the weather in Boston?")
	require.True(t, ok)
	assert.Equal(t, "It is sunny in Boston.", answer)
	assert.Equal(t, 1, tool.Calls())

	calls := model.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "test-model", calls[0].ModelID)
	assert.Contains(t, calls[0].Messages[0].Content, `"name": "fetch_weather"`)
	assert.Contains(t, calls[1].Messages[0].Content, `"result":"Sunny in Boston"`)
	assert.Equal(t, "What's the weather in Boston?", calls[1].Messages[1].Content)
}

func TestProcess_NoToolRequested(t *testing.T) {
	for _, kind := range backend.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			model := testutil.NewScriptedModel("{}")
			p, _ := newProcessor(t, kind, model, weatherTool(t))
			answer, ok := p.Process(context.Background(), "Hello there")
			assert.False(t, ok)
			assert.Empty(t, answer)
			assert.Equal(t, 1, model.CallCount())
		})
	}
}

func TestProcess_LenientBackendIgnoresProse(t *testing.T) {
	model := testutil.NewScriptedModel("Let me think about that.")
	p, _ := newProcessor(t, backend.KindOllama, model, weatherTool(t))
	_, ok := p.Process(context.Background(), "Weather?")
	assert.False(t, ok)
	assert.Equal(t, 1, model.CallCount())
}

func TestProcess_RepairSucceeds(t *testing.T) {
	model := testutil.NewScriptedModel("the tool is fetch_weather", weatherCall, "Sunny, enjoy.")
	tool := weatherTool(t)
	p, logs := newProcessor(t, backend.KindDefault, model, tool)

	answer, ok := p.Process(context.Background(), "Weather in Boston?")
	require.True(t, ok)
	assert.Equal(t, "Sunny, enjoy.", answer)
	assert.Equal(t, 1, tool.Calls())

	calls := model.Calls()
	require.Len(t, calls, 3)
	repair := calls[1].Messages
	require.Len(t, repair, 3)
	assert.Contains(t, repair[0].Content, "malformed JSON")
	assert.True(t, strings.HasPrefix(repair[2].Content, "Error: "))
	assert.Contains(t, repair[2].Content, "Original prompt: Weather in Boston?")
	assert.Contains(t, logs.String(), "requesting repair")
}

func TestProcess_RepairRunsOnlyOnce(t *testing.T) {
	model := testutil.NewScriptedModel("not json", "still not json", "never used")
	tool := weatherTool(t)
	p, _ := newProcessor(t, backend.KindDefault, model, tool)

	answer, ok := p.Process(context.Background(), "Weather?")
	require.True(t, ok)
	assert.Equal(t, ApologyMalformed, answer)
	assert.Equal(t, 2, model.CallCount())
	assert.Equal(t, 1, model.Remaining())
	assert.Zero(t, tool.Calls())
}

func TestProcess_RepairNoTool(t *testing.T) {
	model := testutil.NewScriptedModel("oops", "{}")
	p, _ := newProcessor(t, backend.KindDefault, model)
	answer, ok := p.Process(context.Background(), "Hi")
	assert.False(t, ok)
	assert.Empty(t, answer)
	assert.Equal(t, 2, model.CallCount())
}

func TestProcess_ToolFailuresReachSynthesis(t *testing.T) {
	model := testutil.NewScriptedModel(`[
		{"tool": "fetch_stock", "tool_input": {}},
		{"tool": "fetch_weather", "tool_input": {"location": "Boston"}}
	]`, "Weather is sunny; stock lookup is unavailable.")
	p, logs := newProcessor(t, backend.KindDefault, model, weatherTool(t))

	answer, ok := p.Process(context.Background(), "Stock and weather?")
	require.True(t, ok)
	assert.Equal(t, "Weather is sunny; stock lookup is unavailable.", answer)
	synth := model.Calls()[1].Messages[0].Content
	assert.Contains(t, synth, `{"tool_name":"fetch_stock","error":"Tool 'fetch_stock' not found."}`)
	assert.Contains(t, synth, `{"tool_name":"fetch_weather","result":"Sunny in Boston"}`)
	assert.Contains(t, logs.String(), "tool invocation failed")
}

func TestProcess_TransportErrorIsApology(t *testing.T) {
	model := testutil.NewScriptedModel().Fail(errors.New("connection reset"))
	p, logs := newProcessor(t, backend.KindDefault, model)
	answer, ok := p.Process(context.Background(), "Weather?")
	require.True(t, ok)
	assert.Equal(t, ApologyUnexpected, answer)
	assert.Contains(t, logs.String(), "connection reset")
}

func TestProcess_SynthesisErrorIsApology(t *testing.T) {
	model := testutil.NewScriptedModel(weatherCall).Fail(errors.New("timeout"))
	p, _ := newProcessor(t, backend.KindLlamaCpp, model, weatherTool(t))
	answer, ok := p.Process(context.Background(), "Weather?")
	require.True(t, ok)
	assert.Equal(t, ApologyUnexpected, answer)
}

func TestProcess_RepairTransportErrorIsApology(t *testing.T) {
	model := testutil.NewScriptedModel("garbage").Fail(errors.New("down"))
	p, _ := newProcessor(t, backend.KindDefault, model)
	answer, ok := p.Process(context.Background(), "Weather?")
	require.True(t, ok)
	assert.Equal(t, ApologyUnexpected, answer)
}

func TestProcess_PanicInToolIsIsolated(t *testing.T) {
	model := testutil.NewScriptedModel(`{"tool": "explode", "tool_input": {}}`, "Something went wrong with that tool.")
	tool := &testutil.MockTool{NameVal: "explode", CallFn: func(context.Context, map[string]any) (any, error) {
		panic("kaboom")
	}}
	p, _ := newProcessor(t, backend.KindDefault, model, tool)
	answer, ok := p.Process(context.Background(), "Boom?")
	require.True(t, ok)
	assert.Equal(t, "Something went wrong with that tool.", answer)
	assert.Contains(t, model.Calls()[1].Messages[0].Content, "panic: kaboom")
}

func TestProcess_TemplateBackend(t *testing.T) {
	model := testutil.NewScriptedModel(weatherCall, "Sunny.")
	p, _ := newProcessor(t, backend.KindAnthropic, model, weatherTool(t))
	answer, ok := p.Process(context.Background(), "Weather in Boston?")
	require.True(t, ok)
	assert.Equal(t, "Sunny.", answer)
	calls := model.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].Text, "Question: Weather in Boston?")
	assert.Contains(t, calls[0].Text, "fetch_weather")
	assert.Contains(t, calls[1].Text, "Original user question: Weather in Boston?")
}

func TestSynthesize_EmptyResults(t *testing.T) {
	model := testutil.NewScriptedModel()
	p, _ := newProcessor(t, backend.KindDefault, model)
	answer, ok, err := p.Synthesize(context.Background(), nil, nil, "prompt")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, answer)
	assert.Zero(t, model.CallCount())
}

func TestRequest_ReturnsRawAndReply(t *testing.T) {
	model := testutil.NewScriptedModel(weatherCall)
	p, _ := newProcessor(t, backend.KindDefault, model, weatherTool(t))
	raw, reply, err := p.Request(context.Background(), "Weather in Boston?")
	require.NoError(t, err)
	assert.Equal(t, weatherCall, raw)
	assert.Equal(t, backend.ToolRequested, reply.Kind)
	assert.Equal(t, []toolrelay.Invocation{
		{Tool: "fetch_weather", ToolInput: map[string]any{"location": "Boston"}},
	}, reply.Invocations)
}

func TestRequest_CatalogReflectsLateRegistration(t *testing.T) {
	model := testutil.NewScriptedModel("{}", "{}")
	p, _ := newProcessor(t, backend.KindDefault, model)
	_, _, err := p.Request(context.Background(), "a")
	require.NoError(t, err)
	p.Registry().Register(weatherTool(t))
	_, _, err = p.Request(context.Background(), "b")
	require.NoError(t, err)
	calls := model.Calls()
	assert.NotContains(t, calls[0].Messages[0].Content, "fetch_weather")
	assert.Contains(t, calls[1].Messages[0].Content, "fetch_weather")
}
