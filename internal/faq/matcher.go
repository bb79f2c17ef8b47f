// Package faq provides semantic matching of incoming questions against the
// set of previously answered ones.
//
// A query that does not literally equal a cached question can still be
// answered from the cache when its embedding is close enough to a cached
// question's embedding. The embedding function is an injected capability;
// this package only computes similarities and applies the threshold.
package faq

import (
	"context"
	"log/slog"
	"math"

	"github.com/ChantelleAA/response-aigent/internal/cache"
)

// EmbedFunc embeds a batch of texts. It must return one vector per input
// text, in order, and be deterministic for identical input.
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Matcher finds semantically similar cached questions.
type Matcher struct {
	embed     EmbedFunc
	threshold float64
	logger    *slog.Logger
}

// New creates a Matcher. A match requires cosine similarity >= threshold
// (boundary inclusive).
func New(embed EmbedFunc, threshold float64, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{embed: embed, threshold: threshold, logger: logger}
}

// Match returns the cached answer whose question is most similar to query,
// if that similarity reaches the threshold.
//
// An empty candidate set returns immediately without invoking the embedding
// function. Query and candidates are embedded in a single batch call.
// Embedding failure degrades to a miss; it never fails the request. When
// several candidates tie for the maximum similarity, whichever enumerates
// first wins; stability across identical inputs is all that is promised.
func (m *Matcher) Match(ctx context.Context, query string, candidates []cache.Entry) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}

	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, query)
	for _, e := range candidates {
		texts = append(texts, e.Question)
	}

	vectors, err := m.embed(ctx, texts)
	if err != nil {
		m.logger.Warn("embedding failed, skipping semantic match", "error", err)
		return "", false
	}
	if len(vectors) != len(texts) {
		m.logger.Warn("embedder returned wrong vector count, skipping semantic match",
			"want", len(texts), "got", len(vectors))
		return "", false
	}

	queryVec := vectors[0]
	best := -1
	bestSim := math.Inf(-1)
	for i, vec := range vectors[1:] {
		sim := cosineSimilarity(queryVec, vec)
		if sim > bestSim {
			bestSim = sim
			best = i
		}
	}

	if best < 0 || bestSim < m.threshold {
		return "", false
	}

	m.logger.Debug("semantic match",
		"matched_question", candidates[best].Question,
		"similarity", bestSim,
	)
	return candidates[best].Answer, true
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or a zero vector yield 0 (no similarity).
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
