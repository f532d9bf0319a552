package kgbuilder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/stellasia/neo4j-genai-go/internal/llm"
	"github.com/stellasia/neo4j-genai-go/internal/pipeline"
)

// Chunker splits input text into sentence-like fragments on ".".
type Chunker struct{}

func (Chunker) InputFields() []string  { return []string{FieldText} }
func (Chunker) OutputFields() []string { return []string{FieldChunks} }

func (Chunker) Run(ctx context.Context, input pipeline.Record) (pipeline.Record, error) {
	text, ok := input[FieldText].(string)
	if !ok {
		return nil, fmt.Errorf("text input must be a string, got %T", input[FieldText])
	}
	var chunks []string
	for _, part := range strings.Split(text, ".") {
		if part = strings.TrimSpace(part); part != "" {
			chunks = append(chunks, part)
		}
	}
	return pipeline.Record{FieldChunks: chunks}, nil
}

// SchemaBuilder passes the caller-provided schema description through under
// its canonical field name.
type SchemaBuilder struct{}

func (SchemaBuilder) InputFields() []string  { return []string{FieldSchema} }
func (SchemaBuilder) OutputFields() []string { return []string{FieldDataSchema} }

func (SchemaBuilder) Run(ctx context.Context, input pipeline.Record) (pipeline.Record, error) {
	schema, ok := input[FieldSchema].(string)
	if !ok {
		return nil, fmt.Errorf("schema input must be a string, got %T", input[FieldSchema])
	}
	return pipeline.Record{FieldDataSchema: schema}, nil
}

// Extractor turns chunks into entities and relations. Chunks are processed
// concurrently and the per-chunk results merged in chunk order. Without a
// provider it uses a deterministic stub extraction.
type Extractor struct {
	Provider llm.Provider
}

func (e *Extractor) InputFields() []string  { return []string{FieldChunks, FieldSchema} }
func (e *Extractor) OutputFields() []string { return []string{FieldEntities, FieldRelations} }

type chunkResult struct {
	entities  []Entity
	relations []Entity
	err       error
}

func (e *Extractor) Run(ctx context.Context, input pipeline.Record) (pipeline.Record, error) {
	chunks, ok := input[FieldChunks].([]string)
	if !ok {
		return nil, fmt.Errorf("chunks input must be []string, got %T", input[FieldChunks])
	}
	schema, _ := input[FieldSchema].(string)

	results := make([]chunkResult, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk string) {
			defer wg.Done()
			entities, relations, err := e.processChunk(ctx, chunk, schema)
			results[i] = chunkResult{entities: entities, relations: relations, err: err}
		}(i, chunk)
	}
	wg.Wait()

	entities := []Entity{}
	relations := []Entity{}
	for i, res := range results {
		if res.err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, res.err)
		}
		entities = append(entities, res.entities...)
		relations = append(relations, res.relations...)
	}
	return pipeline.Record{FieldEntities: entities, FieldRelations: relations}, nil
}

func (e *Extractor) processChunk(ctx context.Context, chunk, schema string) ([]Entity, []Entity, error) {
	if e.Provider == nil {
		return stubExtract(chunk)
	}
	return e.llmExtract(ctx, chunk, schema)
}

// stubExtract is the LLM-free extraction used in tests and offline runs.
func stubExtract(chunk string) ([]Entity, []Entity, error) {
	return []Entity{
		{Label: "Person", Properties: map[string]string{"name": "John Doe"}},
	}, []Entity{}, nil
}

const extractionSystemPrompt = `You extract entities and relations from text.
Respond with a single JSON object: {"entities": [{"label": "...", "properties": {"name": "..."}}], "relations": [...]}.
Only use labels and relation types permitted by the schema.`

func (e *Extractor) llmExtract(ctx context.Context, chunk, schema string) ([]Entity, []Entity, error) {
	resp, err := e.Provider.Complete(ctx, &llm.Prompt{
		SystemPrompt: extractionSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf("Schema:\n%s\n\nText:\n%s", schema, chunk)},
		},
	}, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("extraction completion: %w", err)
	}

	var parsed struct {
		Entities  []Entity `json:"entities"`
		Relations []Entity `json:"relations"`
	}
	if err := json.Unmarshal([]byte(jsonBody(resp.Content)), &parsed); err != nil {
		return nil, nil, fmt.Errorf("parsing extraction response: %w", err)
	}
	return parsed.Entities, parsed.Relations, nil
}

// jsonBody strips markdown fences some models wrap around JSON output.
func jsonBody(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

// Writer reports the extraction result unchanged with a status marker. It is
// the terminal pass-through component; use GraphWriter to persist.
type Writer struct{}

func (Writer) InputFields() []string { return []string{FieldEntities, FieldRelations} }
func (Writer) OutputFields() []string {
	return []string{FieldStatus, FieldEntities, FieldRelations}
}

func (Writer) Run(ctx context.Context, input pipeline.Record) (pipeline.Record, error) {
	entities, ok := input[FieldEntities].([]Entity)
	if !ok {
		return nil, fmt.Errorf("entities input must be []Entity, got %T", input[FieldEntities])
	}
	relations, ok := input[FieldRelations].([]Entity)
	if !ok {
		return nil, fmt.Errorf("relations input must be []Entity, got %T", input[FieldRelations])
	}
	return pipeline.Record{
		FieldStatus:    StatusOK,
		FieldEntities:  entities,
		FieldRelations: relations,
	}, nil
}
