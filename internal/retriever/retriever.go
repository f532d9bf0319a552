// Package retriever provides similarity and fulltext search over indexes
// created by the index package.
package retriever

import (
	"context"
	"fmt"

	"github.com/stellasia/neo4j-genai-go/internal/graph"
	"github.com/stellasia/neo4j-genai-go/internal/llm"
	"github.com/stellasia/neo4j-genai-go/internal/observability"
)

// Result is a single scored node returned by a search.
type Result struct {
	ID         string
	Labels     []string
	Properties map[string]any
	Score      float64
}

// VectorRetriever performs nearest-neighbor search against a Neo4j vector
// index, embedding query text through the configured provider.
type VectorRetriever struct {
	exec     graph.Executor
	index    string
	embedder llm.Provider
}

// NewVectorRetriever creates a retriever over the named vector index.
// embedder may be nil if only SearchVector is used.
func NewVectorRetriever(exec graph.Executor, index string, embedder llm.Provider) *VectorRetriever {
	return &VectorRetriever{exec: exec, index: index, embedder: embedder}
}

// Search embeds queryText and returns the topK nearest nodes.
func (r *VectorRetriever) Search(ctx context.Context, queryText string, topK int) ([]Result, error) {
	if r.embedder == nil {
		return nil, fmt.Errorf("no embedder configured, use SearchVector")
	}

	embedCtx, span := observability.StartEmbedSpan(ctx, r.embedder.Name(), 1)
	vectors, err := r.embedder.Embed(embedCtx, []string{queryText})
	observability.RecordError(span, err)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want 1", len(vectors))
	}

	vector := make([]float64, len(vectors[0]))
	for i, v := range vectors[0] {
		vector[i] = float64(v)
	}
	return r.SearchVector(ctx, vector, topK)
}

// SearchVector returns the topK nodes nearest to the given vector.
func (r *VectorRetriever) SearchVector(ctx context.Context, vector []float64, topK int) ([]Result, error) {
	ctx, span := observability.StartRetrievalSpan(ctx, "vector", r.index, topK)
	defer span.End()

	if topK <= 0 {
		err := fmt.Errorf("top_k must be a positive integer, got %d", topK)
		observability.RecordError(span, err)
		return nil, err
	}

	cypher := "CALL db.index.vector.queryNodes($index_name, $top_k, $vector) " +
		"YIELD node, score " +
		"RETURN elementId(node) AS id, labels(node) AS labels, properties(node) AS properties, score"
	records, err := r.exec.ExecuteQuery(ctx, cypher, map[string]any{
		"index_name": r.index,
		"top_k":      topK,
		"vector":     vector,
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := toResults(records)
	observability.RecordRetrievalResult(span, len(results))
	return results, nil
}

// FulltextRetriever performs token-based search against a Neo4j fulltext
// index.
type FulltextRetriever struct {
	exec  graph.Executor
	index string
}

// NewFulltextRetriever creates a retriever over the named fulltext index.
func NewFulltextRetriever(exec graph.Executor, index string) *FulltextRetriever {
	return &FulltextRetriever{exec: exec, index: index}
}

// Search returns the topK best matches for a fulltext query.
func (r *FulltextRetriever) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	ctx, span := observability.StartRetrievalSpan(ctx, "fulltext", r.index, topK)
	defer span.End()

	if topK <= 0 {
		err := fmt.Errorf("top_k must be a positive integer, got %d", topK)
		observability.RecordError(span, err)
		return nil, err
	}

	cypher := "CALL db.index.fulltext.queryNodes($index_name, $query) " +
		"YIELD node, score " +
		"RETURN elementId(node) AS id, labels(node) AS labels, properties(node) AS properties, score " +
		"LIMIT $top_k"
	records, err := r.exec.ExecuteQuery(ctx, cypher, map[string]any{
		"index_name": r.index,
		"query":      query,
		"top_k":      topK,
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("fulltext search: %w", err)
	}

	results := toResults(records)
	observability.RecordRetrievalResult(span, len(results))
	return results, nil
}

func toResults(records []graph.Record) []Result {
	results := make([]Result, 0, len(records))
	for _, rec := range records {
		res := Result{}
		if id, ok := rec["id"].(string); ok {
			res.ID = id
		}
		if score, ok := rec["score"].(float64); ok {
			res.Score = score
		}
		if props, ok := rec["properties"].(map[string]any); ok {
			res.Properties = props
		}
		if labels, ok := rec["labels"].([]any); ok {
			for _, l := range labels {
				if s, ok := l.(string); ok {
					res.Labels = append(res.Labels, s)
				}
			}
		}
		results = append(results, res)
	}
	return results
}
