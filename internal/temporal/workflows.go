// Package temporal runs the KG construction pipeline as a durable workflow,
// one activity per pipeline stage.
package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/stellasia/neo4j-genai-go/internal/kgbuilder"
)

// KGBuildInput holds the workflow parameters.
type KGBuildInput struct {
	Text   string
	Schema string

	// Persist writes results to the graph database instead of just
	// reporting them.
	Persist bool
}

// KGBuildOutput holds the workflow result.
type KGBuildOutput struct {
	Status    string
	Entities  []kgbuilder.Entity
	Relations []kgbuilder.Entity
}

// KGBuildWorkflow orchestrates chunking, extraction and writing.
func KGBuildWorkflow(ctx workflow.Context, input KGBuildInput) (*KGBuildOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var chunks []string
	if err := workflow.ExecuteActivity(ctx, ChunkActivity, input.Text).Get(ctx, &chunks); err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}

	var extraction ExtractionResult
	if err := workflow.ExecuteActivity(ctx, ExtractActivity, chunks, input.Schema).Get(ctx, &extraction); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	var status string
	if err := workflow.ExecuteActivity(ctx, WriteActivity, extraction, input.Persist).Get(ctx, &status); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	return &KGBuildOutput{
		Status:    status,
		Entities:  extraction.Entities,
		Relations: extraction.Relations,
	}, nil
}
