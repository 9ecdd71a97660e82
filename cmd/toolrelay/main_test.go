package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skosovsky/toolrelay/agent"
	"github.com/skosovsky/toolrelay/backend"
	"github.com/skosovsky/toolrelay/internal/config"
	"github.com/skosovsky/toolrelay/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const weatherCall = `{"tool": "fetch_weather", "tool_input": {"location": "Boston"}}`

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvBackend, config.EnvModel, config.EnvBaseURL, config.EnvAPIKey,
		config.EnvLogLevel, config.EnvWeather, config.EnvNews,
	} {
		t.Setenv(k, "")
	}
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func newTestSession(t *testing.T, model *testutil.ScriptedModel, verbose bool) (*session, *bytes.Buffer) {
	t.Helper()
	tool := &testutil.MockTool{
		NameVal: "fetch_weather",
		CallFn: func(context.Context, map[string]any) (any, error) {
			return "Sunny", nil
		},
	}
	b, err := backend.New(backend.KindDefault, model, "test-model")
	require.NoError(t, err)
	p, err := agent.NewProcessor(testutil.NewTestRegistry(tool), b,
		agent.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	require.NoError(t, err)
	var out bytes.Buffer
	return newSession(p, &out, verbose), &out
}

func TestSession_Run(t *testing.T) {
	model := testutil.NewScriptedModel(weatherCall, "It is sunny in Boston.", "{}")
	s, out := newTestSession(t, model, false)

	in := strings.NewReader("What's the weather in Boston?\n\nhello\nexit\nnever read\n")
	require.NoError(t, s.run(context.Background(), in, false))

	assert.Equal(t, "Agent: It is sunny in Boston.\nAgent: "+noToolAnswer+"\n", out.String())
	assert.Equal(t, 3, model.CallCount())
	assert.Len(t, s.agent().History(), 2)
}

func TestSession_Run_InteractivePrompt(t *testing.T) {
	model := testutil.NewScriptedModel("{}")
	s, out := newTestSession(t, model, false)
	require.NoError(t, s.run(context.Background(), strings.NewReader("hi\n"), true))
	assert.Equal(t, "User: Agent: "+noToolAnswer+"\nUser: ", out.String())
}

func TestSession_Verbose(t *testing.T) {
	model := testutil.NewScriptedModel("{}")
	s, out := newTestSession(t, model, true)
	s.handle(context.Background(), "hi")
	assert.Contains(t, out.String(), "Conversation history:\nUser: hi\nAgent:")
}

func TestSession_Commands(t *testing.T) {
	model := testutil.NewScriptedModel("{}", "{}")
	s, out := newTestSession(t, model, false)
	ctx := context.Background()

	require.True(t, s.handle(ctx, "first"))
	require.True(t, s.handle(ctx, "/agent research"))
	assert.Equal(t, "research", s.current)
	assert.Empty(t, s.agent().History())
	require.True(t, s.handle(ctx, "second"))

	out.Reset()
	require.True(t, s.handle(ctx, "/agents"))
	assert.Equal(t, "  default\n* research\n", out.String())

	require.True(t, s.handle(ctx, "/clear"))
	assert.Empty(t, s.agent().History())
	def, ok := s.agents.Get(defaultAgentName)
	require.True(t, ok)
	assert.Len(t, def.History(), 1)

	out.Reset()
	require.True(t, s.handle(ctx, "/agent"))
	assert.Equal(t, "usage: /agent NAME\n", out.String())

	assert.False(t, s.handle(ctx, "/exit"))
	assert.False(t, s.handle(ctx, "quit"))
}

func TestRootOptions_Load(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TOOLRELAY_MODEL=from-dotenv\n"), 0o600))
	t.Setenv(config.EnvModel, "")
	require.NoError(t, os.Unsetenv(config.EnvModel))

	opts := &rootOptions{dotenv: envFile, backend: "ollama"}
	cfg, err := opts.load(true)
	require.NoError(t, err)
	assert.Equal(t, backend.KindOllama, cfg.Kind())
	assert.Equal(t, "from-dotenv", cfg.Model)

	opts = &rootOptions{dotenv: filepath.Join(dir, "missing"), model: "flag-model", logLevel: "debug"}
	cfg, err = opts.load(true)
	require.NoError(t, err)
	assert.Equal(t, "flag-model", cfg.Model)
	assert.Equal(t, slog.LevelDebug, cfg.Level())

	opts = &rootOptions{dotenv: filepath.Join(dir, "missing"), backend: "gemini"}
	_, err = opts.load(true)
	require.Error(t, err)
}

func TestBuildRegistry(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	cfg := config.Default()
	reg, err := buildRegistry(cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())

	cfg.Tools.WeatherAPIKey = "w"
	cfg.Tools.NewsAPIKey = "n"
	reg, err = buildRegistry(cfg, logger)
	require.NoError(t, err)
	_, ok := reg.Lookup("fetch_weather")
	assert.True(t, ok)
	_, ok = reg.Lookup("fetch_news")
	assert.True(t, ok)
}

func TestToolsCommand(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("tools:\n  weather_api_key: w\n"), 0o600))

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"tools", "--config", cfgPath, "--env-file", filepath.Join(dir, "none")})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), `"name": "fetch_weather"`)
	assert.NotContains(t, out.String(), "fetch_news")
	assert.Contains(t, errOut.String(), "fetch_news")
}

func TestChatCommand_RequiresModel(t *testing.T) {
	isolateEnv(t)
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"chat", "--env-file", filepath.Join(t.TempDir(), "none")})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")
}
