package llm

import "context"

// Provider is the interface all LLM backends must implement. It covers the
// two calls this module needs: entity extraction (Complete) and query/chunk
// embedding (Embed).
type Provider interface {
	// Complete sends a prompt and returns a completion.
	Complete(ctx context.Context, prompt *Prompt, opts *RequestOptions) (*Response, error)
	// Embed returns embedding vectors for the given texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Name returns the provider identifier (e.g. "openai", "groq").
	Name() string
}
