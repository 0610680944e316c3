package main

import (
	"context"
	"log/slog"

	"github.com/jonathan/resume-builder/internal/bullets"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/ingestion"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/pipeline"
)

// newTextClient creates the configured model client. Without a usable client
// the app still runs and every request gets the fallback bullets.
func newTextClient(ctx context.Context, cfg *config.Config, log *slog.Logger) llm.Client {
	llmCfg := cfg.LLMConfig()
	if cfg.APIKey == "" && !(llmCfg.Provider == llm.ProviderOpenAI && llmCfg.BaseURL != "") {
		log.Warn("no API key configured, using fallback bullets only",
			slog.String("provider", string(llmCfg.Provider)))
		return nil
	}

	client, err := llm.NewClient(ctx, llmCfg, cfg.APIKey)
	if err != nil {
		log.Warn("text generator unavailable, using fallback bullets only", slog.Any("error", err))
		return nil
	}
	log.Debug("text generator ready",
		slog.String("provider", string(llmCfg.Provider)),
		slog.String("model", client.GetModel(llm.TierLite)))
	return client
}

// newPipeline wires the generator and job description ingestion from cfg.
func newPipeline(cfg *config.Config, client llm.Client, log *slog.Logger) *pipeline.Pipeline {
	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Timeout = cfg.FetchTimeout()

	ingestOpts := &ingestion.Options{
		Fetch:      fetchOpts,
		UseBrowser: cfg.UseBrowser,
		Logger:     log,
	}
	if cfg.UseBrowser {
		ingestOpts.Renderer = fetch.ChromeRenderer(fetch.DefaultBrowserTimeout, log)
	}

	generator := bullets.NewGenerator(client, bullets.WithLogger(log))
	return pipeline.New(generator,
		pipeline.WithIngestionOptions(ingestOpts),
		pipeline.WithLogger(log),
	)
}
