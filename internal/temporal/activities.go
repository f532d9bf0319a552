package temporal

import (
	"context"
	"fmt"

	"github.com/stellasia/neo4j-genai-go/internal/graph"
	"github.com/stellasia/neo4j-genai-go/internal/kgbuilder"
	"github.com/stellasia/neo4j-genai-go/internal/llm"
	"github.com/stellasia/neo4j-genai-go/internal/pipeline"
)

// ExtractionResult is the serializable result passed between activities.
type ExtractionResult struct {
	Entities  []kgbuilder.Entity
	Relations []kgbuilder.Entity
}

// Dependencies holds shared resources injected into activities.
type Dependencies struct {
	Provider llm.Provider   // nil for stub extraction
	Exec     graph.Executor // nil disables persistence
}

var deps *Dependencies

// SetDependencies injects shared resources (called during worker setup).
func SetDependencies(d *Dependencies) {
	deps = d
}

func ChunkActivity(ctx context.Context, text string) ([]string, error) {
	out, err := kgbuilder.Chunker{}.Run(ctx, pipeline.Record{kgbuilder.FieldText: text})
	if err != nil {
		return nil, err
	}
	chunks, _ := out[kgbuilder.FieldChunks].([]string)
	return chunks, nil
}

func ExtractActivity(ctx context.Context, chunks []string, schema string) (ExtractionResult, error) {
	extractor := &kgbuilder.Extractor{Provider: deps.Provider}
	out, err := extractor.Run(ctx, pipeline.Record{
		kgbuilder.FieldChunks: chunks,
		kgbuilder.FieldSchema: schema,
	})
	if err != nil {
		return ExtractionResult{}, err
	}
	return ExtractionResult{
		Entities:  out[kgbuilder.FieldEntities].([]kgbuilder.Entity),
		Relations: out[kgbuilder.FieldRelations].([]kgbuilder.Entity),
	}, nil
}

func WriteActivity(ctx context.Context, extraction ExtractionResult, persist bool) (string, error) {
	input := pipeline.Record{
		kgbuilder.FieldEntities:  extraction.Entities,
		kgbuilder.FieldRelations: extraction.Relations,
	}

	var writer pipeline.Component = kgbuilder.Writer{}
	if persist {
		if deps.Exec == nil {
			return "", fmt.Errorf("persistence requested but no graph executor configured")
		}
		writer = &kgbuilder.GraphWriter{Exec: deps.Exec}
	}

	out, err := writer.Run(ctx, input)
	if err != nil {
		return "", err
	}
	status, _ := out[kgbuilder.FieldStatus].(string)
	return status, nil
}
