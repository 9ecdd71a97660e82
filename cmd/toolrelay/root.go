package main

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/skosovsky/toolrelay/internal/config"
)

type rootOptions struct {
	configPath string
	dotenv     string
	backend    string
	model      string
	baseURL    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "toolrelay",
		Short:         "Chat with a language model that can call tools",
		Long:          "toolrelay asks a language model which registered tool answers a question, invokes it and has the model phrase the final reply.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	f.StringVar(&opts.dotenv, "env-file", ".env", "dotenv file loaded before reading the environment")
	f.StringVar(&opts.backend, "backend", "", "model backend: default, ollama, watsonx, llama-cpp or anthropic")
	f.StringVar(&opts.model, "model", "", "model identifier")
	f.StringVar(&opts.baseURL, "base-url", "", "provider endpoint override")
	f.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(newChatCmd(opts), newToolsCmd(opts))
	return cmd
}

// load reads the configuration and applies flag overrides. validate is false
// for commands that never reach a model.
func (o *rootOptions) load(validate bool) (*config.Config, error) {
	if err := config.LoadDotEnv(o.dotenv); err != nil {
		return nil, err
	}
	cfg, err := config.Read(o.configPath)
	if err != nil {
		return nil, err
	}
	for _, ov := range []struct {
		val string
		dst *string
	}{
		{o.backend, &cfg.Backend},
		{o.model, &cfg.Model},
		{o.baseURL, &cfg.BaseURL},
		{o.logLevel, &cfg.LogLevel},
	} {
		if ov.val != "" {
			*ov.dst = ov.val
		}
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	h := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           log.Level(level),
		Prefix:          "toolrelay",
	})
	return slog.New(h)
}
