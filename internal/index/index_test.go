package index

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stellasia/neo4j-genai-go/internal/graph"
)

// fakeExecutor records every statement it is asked to run.
type fakeExecutor struct {
	statements []string
	params     []map[string]any
	err        error
}

func (f *fakeExecutor) ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]graph.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.statements = append(f.statements, cypher)
	f.params = append(f.params, params)
	return nil, nil
}

func (f *fakeExecutor) Close(ctx context.Context) error { return nil }

func TestCreateVectorIndex(t *testing.T) {
	ctx := context.Background()
	exec := &fakeExecutor{}

	err := CreateVectorIndex(ctx, exec, "embedding-name", "Document", "vectorProperty", 1536, SimilarityEuclidean)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exec.statements) != 1 {
		t.Fatalf("expected exactly one statement, got %d", len(exec.statements))
	}

	stmt := exec.statements[0]
	if !strings.Contains(stmt, "CREATE VECTOR INDEX embedding-name") {
		t.Errorf("statement missing index name: %s", stmt)
	}
	if !strings.Contains(stmt, "(n:Document)") {
		t.Errorf("statement missing label: %s", stmt)
	}
	if !strings.Contains(stmt, "n.vectorProperty") {
		t.Errorf("statement missing property: %s", stmt)
	}

	params := exec.params[0]
	if params["dimensions"] != 1536 {
		t.Errorf("dimensions param = %v, want 1536", params["dimensions"])
	}
	if params["similarity_fn"] != "euclidean" {
		t.Errorf("similarity_fn param = %v, want euclidean", params["similarity_fn"])
	}
}

func TestCreateVectorIndex_InvalidArgs(t *testing.T) {
	tests := []struct {
		name       string
		index      string
		label      string
		property   string
		dimensions int
		fn         SimilarityFunction
	}{
		{"zero_dimensions", "idx", "Document", "embedding", 0, SimilarityCosine},
		{"negative_dimensions", "idx", "Document", "embedding", -5, SimilarityCosine},
		{"bad_similarity", "idx", "Document", "embedding", 128, "manhattan"},
		{"bad_label", "idx", "Document) DETACH DELETE (n", "embedding", 128, SimilarityCosine},
		{"bad_property", "idx", "Document", "e.m `b", 128, SimilarityCosine},
		{"bad_name", "idx name", "Document", "embedding", 128, SimilarityCosine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{}
			err := CreateVectorIndex(context.Background(), exec, tt.index, tt.label, tt.property, tt.dimensions, tt.fn)

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if len(exec.statements) != 0 {
				t.Errorf("expected zero statements, got %d", len(exec.statements))
			}
		})
	}
}

func TestCreateVectorIndex_CaseInsensitiveSimilarity(t *testing.T) {
	exec := &fakeExecutor{}
	if err := CreateVectorIndex(context.Background(), exec, "idx", "Chunk", "embedding", 384, "COSINE"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.params[0]["similarity_fn"] != "cosine" {
		t.Errorf("similarity_fn = %v, want cosine", exec.params[0]["similarity_fn"])
	}
}

func TestCreateVectorIndex_ServerRejection(t *testing.T) {
	exec := &fakeExecutor{err: &neo4j.Neo4jError{
		Code: "Neo.ClientError.Schema.EquivalentSchemaRuleAlreadyExists",
		Msg:  "An equivalent index already exists",
	}}
	err := CreateVectorIndex(context.Background(), exec, "idx", "Chunk", "embedding", 384, SimilarityCosine)

	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationError, got %v", err)
	}
	// The server message must survive the wrapping.
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("wrapped message lost: %v", err)
	}
}

func TestCreateVectorIndex_TransportFailure(t *testing.T) {
	// Only server-side rejections map to OperationError; transport failures
	// pass through with context.
	cause := errors.New("connection refused")
	exec := &fakeExecutor{err: cause}
	err := CreateVectorIndex(context.Background(), exec, "idx", "Chunk", "embedding", 384, SimilarityCosine)

	var opErr *OperationError
	if errors.As(err, &opErr) {
		t.Fatalf("transport failure must not be an OperationError: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause lost in wrapping: %v", err)
	}
}

func TestCreateVectorIndex_ValidationOrder(t *testing.T) {
	// With several invalid identifiers the name is reported first.
	exec := &fakeExecutor{}
	err := CreateVectorIndex(context.Background(), exec, "bad name", "bad label", "bad prop", 128, SimilarityCosine)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if !strings.Contains(cfgErr.Reason, "index name") {
		t.Errorf("expected the index name to be reported first, got %q", cfgErr.Reason)
	}
}

func TestCreateFulltextIndex(t *testing.T) {
	exec := &fakeExecutor{}
	err := CreateFulltextIndex(context.Background(), exec, "search-index", "Document", []string{"title", "body"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exec.statements) != 1 {
		t.Fatalf("expected exactly one statement, got %d", len(exec.statements))
	}
	stmt := exec.statements[0]
	if !strings.Contains(stmt, "CREATE FULLTEXT INDEX search-index") {
		t.Errorf("statement missing index name: %s", stmt)
	}
	if !strings.Contains(stmt, "ON EACH [n.`title`, n.`body`]") {
		t.Errorf("statement missing property list: %s", stmt)
	}
}

func TestCreateFulltextIndex_EmptyProperties(t *testing.T) {
	exec := &fakeExecutor{}
	err := CreateFulltextIndex(context.Background(), exec, "search-index", "Document", nil)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if len(exec.statements) != 0 {
		t.Errorf("expected zero statements, got %d", len(exec.statements))
	}
}

func TestDropIndexIfExists_Idempotent(t *testing.T) {
	exec := &fakeExecutor{}
	for i := 0; i < 2; i++ {
		if err := DropIndexIfExists(context.Background(), exec, "embedding-name"); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i+1, err)
		}
	}
	if len(exec.statements) != 2 {
		t.Fatalf("expected two statements, got %d", len(exec.statements))
	}
	for _, stmt := range exec.statements {
		if stmt != "DROP INDEX embedding-name IF EXISTS" {
			t.Errorf("unexpected drop statement: %s", stmt)
		}
	}
}

func TestUpsertVector(t *testing.T) {
	exec := &fakeExecutor{}
	err := UpsertVector(context.Background(), exec, 0, "vectorProperty", []float64{0.1, 0.2, 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exec.statements) != 1 {
		t.Fatalf("expected exactly one statement, got %d", len(exec.statements))
	}
	if !strings.Contains(exec.statements[0], "db.create.setNodeVectorProperty") {
		t.Errorf("statement missing setter procedure: %s", exec.statements[0])
	}

	params := exec.params[0]
	if params["id"] != int64(0) {
		t.Errorf("id param = %v, want 0", params["id"])
	}
	if params["embedding_property"] != "vectorProperty" {
		t.Errorf("embedding_property param = %v, want vectorProperty", params["embedding_property"])
	}
	vec, ok := params["vector"].([]float64)
	if !ok || len(vec) != 3 || vec[0] != 0.1 || vec[1] != 0.2 || vec[2] != 0.3 {
		t.Errorf("vector param = %v, want [0.1 0.2 0.3]", params["vector"])
	}
}

func TestUpsertVector_ServerFailure(t *testing.T) {
	exec := &fakeExecutor{err: &neo4j.Neo4jError{
		Code: "Neo.ClientError.Procedure.ProcedureCallFailed",
		Msg:  "dimension mismatch",
	}}
	err := UpsertVector(context.Background(), exec, 7, "embedding", []float64{0.5})

	var insErr *InsertionError
	if !errors.As(err, &insErr) {
		t.Fatalf("expected InsertionError, got %v", err)
	}
	if !strings.Contains(err.Error(), "dimension mismatch") {
		t.Errorf("wrapped message lost: %v", err)
	}
}

func TestUpsertVector_TransportFailure(t *testing.T) {
	cause := errors.New("connection reset by peer")
	exec := &fakeExecutor{err: cause}
	err := UpsertVector(context.Background(), exec, 7, "embedding", []float64{0.5})

	var insErr *InsertionError
	if errors.As(err, &insErr) {
		t.Fatalf("transport failure must not be an InsertionError: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause lost in wrapping: %v", err)
	}
}
