package neo4j

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stellasia/neo4j-genai-go/internal/graph"
)

// Executor implements graph.Executor using the Neo4j driver.
type Executor struct {
	driver   neo4j.DriverWithContext
	database string
}

// New creates a Neo4j-backed executor and verifies connectivity.
func New(ctx context.Context, uri, username, password, database string) (*Executor, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Executor{driver: driver, database: database}, nil
}

func (e *Executor) ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]graph.Record, error) {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: e.database})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		var out []graph.Record
		for records.Next(ctx) {
			rec := records.Record()
			row := make(graph.Record, len(rec.Keys))
			for _, key := range rec.Keys {
				v, _ := rec.Get(key)
				row[key] = v
			}
			out = append(out, row)
		}
		return out, records.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]graph.Record), nil
}

func (e *Executor) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

// IsClientError reports whether err originated from the server rejecting a
// statement, as opposed to a transport or usage failure.
func IsClientError(err error) bool {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		return neoErr.Classification() == "ClientError"
	}
	return false
}

var _ graph.Executor = (*Executor)(nil)
