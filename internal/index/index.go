// Package index provides administration helpers for Neo4j vector and
// fulltext indexes, plus vector property upserts.
package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/stellasia/neo4j-genai-go/internal/graph"
	graphneo4j "github.com/stellasia/neo4j-genai-go/internal/graph/neo4j"
	"github.com/stellasia/neo4j-genai-go/internal/observability"
)

// SimilarityFunction is the metric a vector index uses to rank neighbors.
type SimilarityFunction string

const (
	SimilarityEuclidean SimilarityFunction = "euclidean"
	SimilarityCosine    SimilarityFunction = "cosine"
)

// ParseSimilarityFunction normalizes a case-insensitive similarity function
// name, failing with a ConfigError for anything outside the supported set.
func ParseSimilarityFunction(s string) (SimilarityFunction, error) {
	switch SimilarityFunction(strings.ToLower(s)) {
	case SimilarityEuclidean:
		return SimilarityEuclidean, nil
	case SimilarityCosine:
		return SimilarityCosine, nil
	default:
		return "", &ConfigError{Reason: fmt.Sprintf("similarity function must be %q or %q, got %q", SimilarityEuclidean, SimilarityCosine, s)}
	}
}

// CreateVectorIndex creates a vector index over embeddingProperty for nodes
// labeled label. Fails with ConfigError before any round trip if arguments
// are invalid, and with OperationError if the server rejects the statement
// (for example when an index with the same name already exists).
func CreateVectorIndex(ctx context.Context, exec graph.Executor, name, label, embeddingProperty string, dimensions int, similarityFn SimilarityFunction) error {
	ctx, span := observability.StartIndexSpan(ctx, "create_vector_index", name)
	defer span.End()

	if dimensions <= 0 {
		err := &ConfigError{Reason: fmt.Sprintf("dimensions must be a positive integer, got %d", dimensions)}
		observability.RecordError(span, err)
		return err
	}
	fn, err := ParseSimilarityFunction(string(similarityFn))
	if err != nil {
		observability.RecordError(span, err)
		return err
	}
	if err := checkIdentifier("index name", name); err != nil {
		observability.RecordError(span, err)
		return err
	}
	if err := checkIdentifier("label", label); err != nil {
		observability.RecordError(span, err)
		return err
	}
	if err := checkIdentifier("property", embeddingProperty); err != nil {
		observability.RecordError(span, err)
		return err
	}

	cypher := fmt.Sprintf(
		"CREATE VECTOR INDEX %s FOR (n:%s) ON n.%s OPTIONS "+
			"{ indexConfig: { `vector.dimensions`: toInteger($dimensions), `vector.similarity_function`: $similarity_fn } }",
		name, label, embeddingProperty,
	)
	params := map[string]any{
		"dimensions":    dimensions,
		"similarity_fn": string(fn),
	}
	if _, err := exec.ExecuteQuery(ctx, cypher, params); err != nil {
		observability.RecordError(span, err)
		return wrapOperation("vector index creation", err)
	}
	return nil
}

// wrapOperation classifies a database failure: server-side rejections become
// OperationError, transport and usage failures pass through with context.
func wrapOperation(op string, err error) error {
	if graphneo4j.IsClientError(err) {
		return &OperationError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// CreateFulltextIndex creates a fulltext index over the listed node
// properties for nodes labeled label.
func CreateFulltextIndex(ctx context.Context, exec graph.Executor, name, label string, properties []string) error {
	ctx, span := observability.StartIndexSpan(ctx, "create_fulltext_index", name)
	defer span.End()

	if len(properties) == 0 {
		err := &ConfigError{Reason: "at least one property is required for a fulltext index"}
		observability.RecordError(span, err)
		return err
	}
	if err := checkIdentifier("index name", name); err != nil {
		observability.RecordError(span, err)
		return err
	}
	if err := checkIdentifier("label", label); err != nil {
		observability.RecordError(span, err)
		return err
	}
	quoted := make([]string, len(properties))
	for i, prop := range properties {
		if err := checkIdentifier("property", prop); err != nil {
			observability.RecordError(span, err)
			return err
		}
		quoted[i] = "n.`" + prop + "`"
	}

	cypher := fmt.Sprintf(
		"CREATE FULLTEXT INDEX %s FOR (n:`%s`) ON EACH [%s]",
		name, label, strings.Join(quoted, ", "),
	)
	if _, err := exec.ExecuteQuery(ctx, cypher, nil); err != nil {
		observability.RecordError(span, err)
		return wrapOperation("fulltext index creation", err)
	}
	return nil
}

// DropIndexIfExists drops the named index. Dropping an absent index is not
// an error, so the call is idempotent.
func DropIndexIfExists(ctx context.Context, exec graph.Executor, name string) error {
	ctx, span := observability.StartIndexSpan(ctx, "drop_index", name)
	defer span.End()

	if err := checkIdentifier("index name", name); err != nil {
		observability.RecordError(span, err)
		return err
	}
	cypher := fmt.Sprintf("DROP INDEX %s IF EXISTS", name)
	if _, err := exec.ExecuteQuery(ctx, cypher, nil); err != nil {
		observability.RecordError(span, err)
		return wrapOperation("index drop", err)
	}
	return nil
}

// UpsertVector sets property on the node with the given database id to the
// given vector, via the server-side vector property setter.
func UpsertVector(ctx context.Context, exec graph.Executor, nodeID int64, property string, vector []float64) error {
	ctx, span := observability.StartIndexSpan(ctx, "upsert_vector", property)
	defer span.End()

	// The property name rides along as a procedure argument, so it is a
	// bound parameter here rather than interpolated text.
	cypher := "MATCH (n) " +
		"WHERE id(n) = $id " +
		"WITH n " +
		"CALL db.create.setNodeVectorProperty(n, $embedding_property, $vector) " +
		"RETURN n"
	params := map[string]any{
		"id":                 nodeID,
		"embedding_property": property,
		"vector":             vector,
	}
	if _, err := exec.ExecuteQuery(ctx, cypher, params); err != nil {
		observability.RecordError(span, err)
		if graphneo4j.IsClientError(err) {
			return &InsertionError{Err: err}
		}
		return fmt.Errorf("upserting vector: %w", err)
	}
	return nil
}
