package kgbuilder

import (
	"fmt"

	"github.com/stellasia/neo4j-genai-go/internal/llm"
	"github.com/stellasia/neo4j-genai-go/internal/pipeline"
)

// Component names used by BuildPipeline.
const (
	ComponentChunker   = "chunker"
	ComponentSchema    = "schema"
	ComponentExtractor = "extractor"
	ComponentWriter    = "writer"
)

// BuildPipeline wires the standard KG construction graph:
//
//	chunker ──► extractor ──► writer
//	schema  ──►
//
// writer defaults to the pass-through Writer when nil; pass a *GraphWriter
// to persist results. provider may be nil for stub extraction.
func BuildPipeline(provider llm.Provider, writer pipeline.Component, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	if writer == nil {
		writer = Writer{}
	}

	p := pipeline.New(opts...)
	if err := p.AddComponent(ComponentChunker, Chunker{}); err != nil {
		return nil, err
	}
	if err := p.AddComponent(ComponentSchema, SchemaBuilder{}); err != nil {
		return nil, err
	}
	if err := p.AddComponent(ComponentExtractor, &Extractor{Provider: provider}); err != nil {
		return nil, err
	}
	if err := p.AddComponent(ComponentWriter, writer); err != nil {
		return nil, err
	}

	if err := p.Connect(ComponentChunker, ComponentExtractor, map[string]string{
		FieldChunks: ComponentChunker + "." + FieldChunks,
	}); err != nil {
		return nil, fmt.Errorf("wiring chunker: %w", err)
	}
	if err := p.Connect(ComponentSchema, ComponentExtractor, map[string]string{
		FieldSchema: ComponentSchema + "." + FieldDataSchema,
	}); err != nil {
		return nil, fmt.Errorf("wiring schema: %w", err)
	}
	if err := p.Connect(ComponentExtractor, ComponentWriter, map[string]string{
		FieldEntities:  ComponentExtractor + "." + FieldEntities,
		FieldRelations: ComponentExtractor + "." + FieldRelations,
	}); err != nil {
		return nil, fmt.Errorf("wiring extractor: %w", err)
	}
	return p, nil
}
