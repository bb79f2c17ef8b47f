// Package knowledge stores business documents in an embedded vector
// database and retrieves the snippets most relevant to a question.
package knowledge

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ChantelleAA/response-aigent/internal/log"
)

// DefaultTopK is how many snippets Retrieve returns when the caller
// passes a non-positive count.
const DefaultTopK = 10

// Store manages the document collection backing retrieval-augmented
// answers. Vectors live in a chromem-go database persisted under the
// data directory, so the knowledge base survives restarts without an
// external service.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	logger     log.Logger
}

// New opens (or creates) the persistent vector database at path and
// binds the named collection to the given embedding function.
func New(path, collection string, embed chromem.EmbeddingFunc, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	if collection == "" {
		collection = "website_kb"
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}

	coll, err := db.GetOrCreateCollection(collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	return &Store{
		db:         db,
		collection: coll,
		logger:     logger.With("component", "knowledge"),
	}, nil
}

// Add embeds and stores one document. An existing document with the
// same ID is replaced.
func (s *Store) Add(ctx context.Context, id, content string) error {
	if content == "" {
		return fmt.Errorf("document %q has no content", id)
	}

	err := s.collection.AddDocument(ctx, chromem.Document{
		ID:      id,
		Content: content,
	})
	if err != nil {
		return fmt.Errorf("failed to add document %q: %w", id, err)
	}

	s.logger.Debug("added document", "id", id, "size", len(content))
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	return s.collection.Count()
}

// Retrieve returns the contents of the topK documents most similar to
// the query, best match first. An empty collection yields an empty
// result rather than an error.
func (s *Store) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	// chromem rejects nResults greater than the collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := s.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	snippets := make([]string, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, r.Content)
	}

	s.logger.Debug("retrieved context", "query_length", len(query), "snippets", len(snippets))
	return snippets, nil
}
