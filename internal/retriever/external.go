package retriever

import (
	"context"
	"fmt"

	"github.com/stellasia/neo4j-genai-go/internal/llm"
	"github.com/stellasia/neo4j-genai-go/internal/observability"
	"github.com/stellasia/neo4j-genai-go/internal/vector"
)

// ExternalRetriever searches embeddings mirrored into an external vector
// store (e.g. Qdrant) instead of a Neo4j vector index.
type ExternalRetriever struct {
	repo     vector.Repository
	embedder llm.Provider
}

// NewExternalRetriever creates a retriever over an external vector store.
func NewExternalRetriever(repo vector.Repository, embedder llm.Provider) *ExternalRetriever {
	return &ExternalRetriever{repo: repo, embedder: embedder}
}

// Search embeds queryText and returns the topK most similar documents.
func (r *ExternalRetriever) Search(ctx context.Context, queryText string, topK int) ([]vector.SearchResult, error) {
	ctx, span := observability.StartRetrievalSpan(ctx, "external", "", topK)
	defer span.End()

	if topK <= 0 {
		err := fmt.Errorf("top_k must be a positive integer, got %d", topK)
		observability.RecordError(span, err)
		return nil, err
	}

	vectors, err := r.embedder.Embed(ctx, []string{queryText})
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want 1", len(vectors))
	}

	results, err := r.repo.Search(ctx, vectors[0], topK)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("external search: %w", err)
	}
	observability.RecordRetrievalResult(span, len(results))
	return results, nil
}
