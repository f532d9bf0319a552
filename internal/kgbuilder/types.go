// Package kgbuilder provides the knowledge-graph construction components:
// chunk text, extract entities and relations, and write the result to the
// graph, wired as a pipeline.
package kgbuilder

// Entity is a labeled graph node or relationship candidate produced by
// extraction.
type Entity struct {
	Label      string            `json:"label"`
	Properties map[string]string `json:"properties"`
}

// Field names shared between components and pipeline wiring.
const (
	FieldText       = "text"
	FieldChunks     = "chunks"
	FieldSchema     = "schema"
	FieldDataSchema = "data_schema"
	FieldEntities   = "entities"
	FieldRelations  = "relations"
	FieldStatus     = "status"
)

// StatusOK is the writer's status value for a successful run.
const StatusOK = "OK"
