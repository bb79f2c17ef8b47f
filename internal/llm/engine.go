// Package llm wraps the model provider behind a small streaming engine
// interface so the resolution pipeline can be tested without a live model.
package llm

import (
	"context"
	"errors"
	"iter"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/ChantelleAA/response-aigent/internal/log"
)

// errStreamStopped signals that the consumer stopped pulling tokens. It
// aborts the provider call and is never surfaced to callers.
var errStreamStopped = errors.New("stream stopped by consumer")

// Options controls a single generation call.
type Options struct {
	Temperature   float64
	TopP          float64
	MaxTokens     int
	StopSequences []string
}

// Engine produces answer tokens for an assembled prompt.
//
// The returned sequence yields tokens in order. A non-nil error is the
// final element; breaking out of the loop aborts generation. Implementations
// must respect ctx cancellation between tokens.
type Engine interface {
	Stream(ctx context.Context, prompt string, opts Options) iter.Seq2[string, error]
}

// GenkitEngine generates answers through a Genkit-registered model.
type GenkitEngine struct {
	g         *genkit.Genkit
	modelName string
	logger    log.Logger
}

// NewGenkitEngine creates an engine bound to the given provider-qualified
// model name, e.g. "ollama/llama3.2".
func NewGenkitEngine(g *genkit.Genkit, modelName string, logger log.Logger) *GenkitEngine {
	if logger == nil {
		logger = log.NewNop()
	}
	return &GenkitEngine{
		g:         g,
		modelName: modelName,
		logger:    logger.With("component", "llm", "model", modelName),
	}
}

// Stream runs one generation. The provider call happens inside the
// sequence, so nothing is sent to the model until iteration starts.
func (e *GenkitEngine) Stream(ctx context.Context, prompt string, opts Options) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stopped := false

		callback := func(_ context.Context, chunk *ai.ModelResponseChunk) error {
			if chunk == nil {
				return nil
			}
			for _, part := range chunk.Content {
				if part.Text == "" {
					continue
				}
				if !yield(part.Text, nil) {
					stopped = true
					return errStreamStopped
				}
			}
			return nil
		}

		genOpts := []ai.GenerateOption{
			ai.WithModelName(e.modelName),
			ai.WithPrompt(prompt),
			ai.WithConfig(&ai.GenerationCommonConfig{
				Temperature:     opts.Temperature,
				TopP:            opts.TopP,
				MaxOutputTokens: opts.MaxTokens,
				StopSequences:   opts.StopSequences,
			}),
			ai.WithStreaming(callback),
		}

		_, err := genkit.Generate(ctx, e.g, genOpts...)
		if err != nil && !stopped && !errors.Is(err, errStreamStopped) {
			e.logger.Warn("generation failed", "error", err)
			yield("", err)
		}
	}
}
