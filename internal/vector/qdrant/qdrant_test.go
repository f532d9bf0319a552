package qdrant

import (
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stellasia/neo4j-genai-go/internal/vector"
)

func TestChunkPayload(t *testing.T) {
	doc := vector.Document{
		ID:      "0b84f1a2-0000-4000-8000-000000000000",
		Content: "Graphs are everywhere",
		Metadata: map[string]string{
			"source": "doc1",
			"chunk":  "0",
		},
	}

	payload := chunkPayload(doc)
	if got := payload[contentKey].GetStringValue(); got != "Graphs are everywhere" {
		t.Errorf("content payload = %q", got)
	}
	if got := payload["source"].GetStringValue(); got != "doc1" {
		t.Errorf("source payload = %q", got)
	}
	if len(payload) != 3 {
		t.Errorf("payload fields = %d, want 3", len(payload))
	}
}

func TestChunkPayload_MetadataCannotClobberContent(t *testing.T) {
	doc := vector.Document{
		Content:  "the real chunk text",
		Metadata: map[string]string{contentKey: "impostor"},
	}

	payload := chunkPayload(doc)
	if got := payload[contentKey].GetStringValue(); got != "the real chunk text" {
		t.Errorf("content payload = %q, metadata must not override it", got)
	}
}

func TestChunkResult(t *testing.T) {
	pt := &pb.ScoredPoint{
		Id:    &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "0b84f1a2-0000-4000-8000-000000000000"}},
		Score: 0.87,
		Payload: map[string]*pb.Value{
			contentKey: {Kind: &pb.Value_StringValue{StringValue: "Graphs are everywhere"}},
			"source":   {Kind: &pb.Value_StringValue{StringValue: "doc1"}},
		},
	}

	res := chunkResult(pt)
	if res.ID != "0b84f1a2-0000-4000-8000-000000000000" {
		t.Errorf("id = %q", res.ID)
	}
	if res.Score != 0.87 {
		t.Errorf("score = %f", res.Score)
	}
	if res.Content != "Graphs are everywhere" {
		t.Errorf("content = %q", res.Content)
	}
	if res.Metadata["source"] != "doc1" {
		t.Errorf("metadata = %v", res.Metadata)
	}
	if _, leaked := res.Metadata[contentKey]; leaked {
		t.Error("content leaked into metadata")
	}
}
