package kgbuilder

import (
	"context"
	"fmt"
	"regexp"

	"github.com/stellasia/neo4j-genai-go/internal/graph"
	"github.com/stellasia/neo4j-genai-go/internal/pipeline"
)

// Labels and relationship types cannot be bound as parameters, so they are
// interpolated after validation.
var labelPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// GraphWriter persists extracted entities and relations to the graph
// database. Entities are merged by their name property; relations must carry
// "from" and "to" properties naming the endpoints.
type GraphWriter struct {
	Exec graph.Executor
}

func (*GraphWriter) InputFields() []string { return []string{FieldEntities, FieldRelations} }
func (*GraphWriter) OutputFields() []string {
	return []string{FieldStatus, FieldEntities, FieldRelations}
}

func (w *GraphWriter) Run(ctx context.Context, input pipeline.Record) (pipeline.Record, error) {
	entities, ok := input[FieldEntities].([]Entity)
	if !ok {
		return nil, fmt.Errorf("entities input must be []Entity, got %T", input[FieldEntities])
	}
	relations, ok := input[FieldRelations].([]Entity)
	if !ok {
		return nil, fmt.Errorf("relations input must be []Entity, got %T", input[FieldRelations])
	}

	for i, ent := range entities {
		if err := w.writeEntity(ctx, ent); err != nil {
			return nil, fmt.Errorf("entity %d (%s): %w", i, ent.Label, err)
		}
	}
	for i, rel := range relations {
		if err := w.writeRelation(ctx, rel); err != nil {
			return nil, fmt.Errorf("relation %d (%s): %w", i, rel.Label, err)
		}
	}

	return pipeline.Record{
		FieldStatus:    StatusOK,
		FieldEntities:  entities,
		FieldRelations: relations,
	}, nil
}

func (w *GraphWriter) writeEntity(ctx context.Context, ent Entity) error {
	if !labelPattern.MatchString(ent.Label) {
		return fmt.Errorf("invalid label %q", ent.Label)
	}
	name, ok := ent.Properties["name"]
	if !ok {
		return fmt.Errorf("entity missing name property")
	}
	cypher := fmt.Sprintf("MERGE (e:%s {name: $name}) SET e += $props", ent.Label)
	_, err := w.Exec.ExecuteQuery(ctx, cypher, map[string]any{
		"name":  name,
		"props": toAnyMap(ent.Properties),
	})
	return err
}

func (w *GraphWriter) writeRelation(ctx context.Context, rel Entity) error {
	if !labelPattern.MatchString(rel.Label) {
		return fmt.Errorf("invalid relationship type %q", rel.Label)
	}
	from, ok := rel.Properties["from"]
	if !ok {
		return fmt.Errorf("relation missing from property")
	}
	to, ok := rel.Properties["to"]
	if !ok {
		return fmt.Errorf("relation missing to property")
	}

	props := make(map[string]any, len(rel.Properties))
	for k, v := range rel.Properties {
		if k == "from" || k == "to" {
			continue
		}
		props[k] = v
	}

	cypher := fmt.Sprintf(
		"MATCH (a {name: $from}) MATCH (b {name: $to}) MERGE (a)-[r:%s]->(b) SET r += $props",
		rel.Label,
	)
	_, err := w.Exec.ExecuteQuery(ctx, cypher, map[string]any{
		"from":  from,
		"to":    to,
		"props": props,
	})
	return err
}

func toAnyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var _ pipeline.Component = (*GraphWriter)(nil)
