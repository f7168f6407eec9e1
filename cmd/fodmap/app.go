package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"fodmap-research/internal/config"
	"fodmap-research/internal/logging"
	"fodmap-research/internal/metrics"
	"fodmap-research/llm/agents/main-agents/fodmap"
	"fodmap-research/llm/agents/main-agents/primary"
	"fodmap-research/llm/agents/sub-agents/search"
	"fodmap-research/llm/agents/sub-agents/webresearch"
	"fodmap-research/llm/providers"
	"fodmap-research/llm/providers/openai"
	"fodmap-research/llm/providers/perplexity"
	"fodmap-research/llm/tools"
	"fodmap-research/llm/tools/food_research"
	"fodmap-research/llm/tools/search_summarize"
	"fodmap-research/llm/tools/webfetch"
	"fodmap-research/llm/tools/websearch"
)

// app is every component wired from one configuration
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	closer  io.Closer
	metrics *metrics.Metrics

	search     *search.SearchAgent
	classifier *fodmap.Classifier
	web        *webresearch.Pipeline
	primary    *primary.PrimaryAgent
}

func newApp(cfg *config.Config) (*app, error) {
	logger, closer, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	m := metrics.New()

	openaiProvider, err := openai.NewProvider(openai.Config{
		APIKey:  cfg.Keys.OpenAI,
		BaseURL: cfg.OpenAI.BaseURL,
		Timeout: timeout,
	})
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to create openai provider: %w", err)
	}
	perplexityProvider, err := perplexity.NewProvider(perplexity.Config{
		APIKey:  cfg.Keys.Perplexity,
		BaseURL: cfg.Perplexity.BaseURL,
		Model:   cfg.Perplexity.Model,
		Timeout: timeout,
	}, logger)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to create perplexity provider: %w", err)
	}
	bing, err := websearch.NewClient(websearch.Config{
		APIKey:   cfg.Keys.Bing,
		Endpoint: cfg.Bing.Endpoint,
		Count:    cfg.Bing.Count,
		Market:   cfg.Bing.Market,
		Timeout:  timeout,
	}, logger)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to create bing client: %w", err)
	}
	fetcher := webfetch.NewFetcher(webfetch.Config{
		UserAgent: cfg.Fetch.UserAgent,
		MaxBytes:  cfg.Fetch.MaxBytes,
		Timeout:   timeout,
	}, logger)

	llms := providers.NewRegistry()
	llms.RegisterProvider(openaiProvider)
	llms.RegisterProvider(perplexityProvider)

	gateway, err := llms.Gateway(openaiProvider.Name(), cfg.OpenAI.Model)
	if err != nil {
		closer.Close()
		return nil, err
	}

	searchAgent := search.NewSearchAgent(perplexityProvider, logger)
	classifier := fodmap.NewClassifier(searchAgent, gateway, m, logger)
	pipeline := webresearch.NewPipeline(bing, fetcher, gateway, m, logger)

	toolRegistry := tools.NewRegistry()
	for _, tool := range []tools.Tool{
		food_research.NewFoodResearchTool(classifier),
		search_summarize.NewSearchSummarizeTool(searchAgent),
	} {
		if err := toolRegistry.Register(tool); err != nil {
			closer.Close()
			return nil, err
		}
	}

	chat := primary.NewPrimaryAgent(openaiProvider, cfg.OpenAI.Model, toolRegistry, logger,
		primary.WithMaxToolRounds(cfg.Research.MaxToolRounds),
		primary.WithMetrics(m),
	)

	return &app{
		cfg:        cfg,
		logger:     logger,
		closer:     closer,
		metrics:    m,
		search:     searchAgent,
		classifier: classifier,
		web:        pipeline,
		primary:    chat,
	}, nil
}

func (a *app) Close() error {
	return a.closer.Close()
}
