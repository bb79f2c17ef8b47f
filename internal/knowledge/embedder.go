package knowledge

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	chromem "github.com/philippgille/chromem-go"
)

// NewEmbeddingFunc bridges a Genkit ai.Embedder to the chromem-go
// EmbeddingFunc shape. chromem normalizes vectors itself, so the raw
// embedding is returned as is.
func NewEmbeddingFunc(embedder ai.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
			Input: []*ai.Document{ai.DocumentFromText(text, nil)},
		})
		if err != nil {
			return nil, fmt.Errorf("embed failed: %w", err)
		}
		if len(resp.Embeddings) == 0 {
			return nil, fmt.Errorf("no embeddings returned")
		}
		return resp.Embeddings[0].Embedding, nil
	}
}

// NewBatchEmbedFunc creates a batch embedding function from a Genkit
// ai.Embedder. All texts go out in a single request, so similarity
// matching over the cached questions costs one round trip.
func NewBatchEmbedFunc(embedder ai.Embedder) func(ctx context.Context, texts []string) ([][]float32, error) {
	return func(ctx context.Context, texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return nil, nil
		}

		docs := make([]*ai.Document, len(texts))
		for i, t := range texts {
			docs[i] = ai.DocumentFromText(t, nil)
		}

		resp, err := embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
		if err != nil {
			return nil, fmt.Errorf("embed failed: %w", err)
		}
		if len(resp.Embeddings) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(resp.Embeddings), len(texts))
		}

		vectors := make([][]float32, len(texts))
		for i, e := range resp.Embeddings {
			vectors[i] = e.Embedding
		}
		return vectors, nil
	}
}
