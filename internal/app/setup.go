package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/core/tracing"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"

	"github.com/ChantelleAA/response-aigent/internal/cache"
	"github.com/ChantelleAA/response-aigent/internal/chat"
	"github.com/ChantelleAA/response-aigent/internal/config"
	"github.com/ChantelleAA/response-aigent/internal/faq"
	"github.com/ChantelleAA/response-aigent/internal/knowledge"
	"github.com/ChantelleAA/response-aigent/internal/llm"
	"github.com/ChantelleAA/response-aigent/internal/log"
	"github.com/ChantelleAA/response-aigent/internal/prompt"
	"github.com/ChantelleAA/response-aigent/internal/store"
)

// Setup creates and initializes the application. Call Close() on the
// returned App to flush state and release resources.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	kb, err := knowledge.New(cfg.VectorPath(), cfg.KBCollection, knowledge.NewEmbeddingFunc(embedder), logger)
	if err != nil {
		return nil, fmt.Errorf("opening knowledge store: %w", err)
	}
	a.Knowledge = kb

	a.Store = store.New(cfg.CachePath(), cfg.QuestionLogPath(), logger)

	controller, err := provideController(a, logger)
	if err != nil {
		return nil, err
	}
	a.Controller = controller

	return a, nil
}

// provideController assembles the resolution pipeline around state
// loaded from disk.
func provideController(a *App, logger log.Logger) (*chat.Controller, error) {
	cfg := a.Config

	answerCache := cache.New(cfg.CacheLimit)
	answerCache.Restore(a.Store.LoadCache())

	qlog := store.NewQuestionLog(a.Store.LoadQuestionLog())

	matcher := faq.New(knowledge.NewBatchEmbedFunc(a.Embedder), cfg.SimilarityThreshold, logger)

	retrieve := func(ctx context.Context, query string) ([]string, error) {
		return a.Knowledge.Retrieve(ctx, query, knowledge.DefaultTopK)
	}
	assembler, err := prompt.New(retrieve, cfg.MemoryWindow, cfg.PromptTemplate, logger)
	if err != nil {
		return nil, fmt.Errorf("building prompt assembler: %w", err)
	}

	engine := llm.NewGenkitEngine(a.Genkit, cfg.FullModelName(), logger)

	return chat.New(chat.Config{
		Cache:       answerCache,
		Matcher:     matcher,
		Assembler:   assembler,
		Engine:      engine,
		Logger:      logger,
		Store:       a.Store,
		QuestionLog: qlog,
		GenOptions: llm.Options{
			Temperature:   cfg.Temperature,
			TopP:          cfg.TopP,
			MaxTokens:     cfg.MaxTokens,
			StopSequences: cfg.StopSequences,
		},
		TokenSafetyCap: cfg.TokenSafetyCap,
		MinAnswerWords: cfg.MinAnswerWords,
		RateLimiter:    rate.NewLimiter(rate.Every(time.Second), 2),
	})
}

// provideOtelShutdown registers an OTLP HTTP span exporter on Genkit's
// tracer provider. Must run before provideGenkit so the provider is
// ready. An empty agent host disables export entirely.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	if cfg.OTLPAgentHost == "" {
		return func() {}
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPAgentHost),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("creating trace exporter, tracing disabled", "error", err)
		return func() {}
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)
	logger.Debug("trace export enabled", "agent", cfg.OTLPAgentHost)

	shutdown := tracing.TracerProvider().Shutdown
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideGenkit initializes Genkit with the configured AI provider.
// Ollama (the default) keeps inference fully local; googleai and openai
// are supported for hosted deployments.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit registration, there is no discovery.
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized genkit with openai provider", "model", cfg.ModelName)

	case config.ProviderGoogleAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with googleai provider")
		}
		logger.Info("initialized genkit with googleai provider", "model", cfg.ModelName)

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the provider
// plugin. Each provider registers embedders differently.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		// Keyed by server address, registered in provideGenkit.
		return ollama.Embedder(g, cfg.OllamaHost)
	case config.ProviderOpenAI:
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}
