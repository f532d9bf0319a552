package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/stellasia/neo4j-genai-go/internal/llm"
)

type stubProvider struct {
	vectors [][]float32
	err     error
}

func (s *stubProvider) Complete(ctx context.Context, prompt *llm.Prompt, opts *llm.RequestOptions) (*llm.Response, error) {
	return nil, errors.New("not implemented")
}

func (s *stubProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return s.vectors, s.err
}

func (s *stubProvider) Name() string { return "stub" }

type memoryRepo struct {
	docs []Document
	err  error
}

func (m *memoryRepo) Upsert(ctx context.Context, docs []Document) error {
	if m.err != nil {
		return m.err
	}
	m.docs = append(m.docs, docs...)
	return nil
}

func (m *memoryRepo) Search(ctx context.Context, vec []float32, topK int) ([]SearchResult, error) {
	return nil, nil
}

func (m *memoryRepo) Close() error { return nil }

func TestIndexTexts(t *testing.T) {
	repo := &memoryRepo{}
	e := NewEmbedder(&stubProvider{vectors: [][]float32{{0.1}, {0.2}}}, repo)

	err := e.IndexTexts(context.Background(), []string{"a", "b"}, []map[string]string{{"source": "doc1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.docs) != 2 {
		t.Fatalf("docs = %d, want 2", len(repo.docs))
	}
	if repo.docs[0].Content != "a" || repo.docs[0].Metadata["source"] != "doc1" {
		t.Errorf("doc 0: %+v", repo.docs[0])
	}
	// Second text has no metadata entry; must default to empty, not panic.
	if repo.docs[1].Metadata == nil {
		t.Error("doc 1 metadata should be empty map")
	}
	if repo.docs[0].ID == repo.docs[1].ID {
		t.Error("document IDs must be unique")
	}
}

func TestIndexTexts_CountMismatch(t *testing.T) {
	e := NewEmbedder(&stubProvider{vectors: [][]float32{{0.1}}}, &memoryRepo{})
	if err := e.IndexTexts(context.Background(), []string{"a", "b"}, nil); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestIndexTexts_EmbedFailure(t *testing.T) {
	e := NewEmbedder(&stubProvider{err: errors.New("quota exceeded")}, &memoryRepo{})
	if err := e.IndexTexts(context.Background(), []string{"a"}, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewUUID_Format(t *testing.T) {
	id := newUUID()
	if len(id) != 36 {
		t.Fatalf("len = %d, want 36", len(id))
	}
	if id[14] != '4' {
		t.Errorf("version nibble = %c, want 4", id[14])
	}
}
