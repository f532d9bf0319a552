package graph

import "context"

// Record is a single row returned by a query, keyed by the names in the
// RETURN clause.
type Record map[string]any

// Executor is the sole database boundary the rest of the module touches.
// Implementations execute one parameterized Cypher statement per call.
type Executor interface {
	// ExecuteQuery runs a single statement with bound parameters and
	// returns the resulting records, if any.
	ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]Record, error)
	// Close releases resources.
	Close(ctx context.Context) error
}
