package main

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/skosovsky/toolrelay"
	"github.com/skosovsky/toolrelay/agent"
	"github.com/skosovsky/toolrelay/backend"
	"github.com/skosovsky/toolrelay/internal/config"
	"github.com/skosovsky/toolrelay/toolkits/news"
	"github.com/skosovsky/toolrelay/toolkits/weather"
)

const tracerName = "github.com/skosovsky/toolrelay"

// buildRegistry registers every built-in tool that has credentials.
func buildRegistry(cfg *config.Config, logger *slog.Logger) (*toolrelay.Registry, error) {
	reg := toolrelay.NewRegistry(toolrelay.WithDefaultTimeout(cfg.ToolTimeout))
	reg.Use(
		toolrelay.WithLogging(logger),
		toolrelay.WithTracing(otel.Tracer(tracerName)),
	)

	if key := cfg.Tools.WeatherAPIKey; key != "" {
		t, err := weather.New(weather.Config{APIKey: key, BaseURL: cfg.Tools.WeatherBaseURL})
		if err != nil {
			return nil, err
		}
		reg.Register(t)
	} else {
		logger.Warn("tool disabled", "tool", "fetch_weather", "missing", config.EnvWeather)
	}

	if key := cfg.Tools.NewsAPIKey; key != "" {
		t, err := news.New(news.Config{APIKey: key, BaseURL: cfg.Tools.NewsBaseURL})
		if err != nil {
			return nil, err
		}
		reg.Register(t)
	} else {
		logger.Warn("tool disabled", "tool", "fetch_news", "missing", config.EnvNews)
	}
	return reg, nil
}

// buildProcessor connects cfg's model provider, backend variant and registry.
func buildProcessor(ctx context.Context, cfg *config.Config, reg *toolrelay.Registry, logger *slog.Logger) (*agent.Processor, error) {
	kind := cfg.Kind()
	model, err := backend.NewFantasyModel(ctx, backend.ModelConfig{
		Kind:    kind,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	b, err := backend.New(kind, model, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("backend %q: %w", kind, err)
	}
	return agent.NewProcessor(reg, b, agent.WithLogger(logger))
}
