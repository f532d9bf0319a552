// Package qdrant mirrors chunk embeddings into a Qdrant collection, keyed by
// document UUID with the chunk text and metadata carried as payload.
package qdrant

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stellasia/neo4j-genai-go/internal/vector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// contentKey is the payload field holding the chunk text. Metadata entries
// under the same key are dropped rather than allowed to clobber it.
const contentKey = "content"

// Repository implements vector.Repository using Qdrant.
type Repository struct {
	conn       *grpc.ClientConn
	points     pb.PointsClient
	collection string
}

// New creates a Qdrant-backed repository.
func New(ctx context.Context, host string, port int, collection string) (*Repository, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	return &Repository{
		conn:       conn,
		points:     pb.NewPointsClient(conn),
		collection: collection,
	}, nil
}

func (r *Repository) Upsert(ctx context.Context, docs []vector.Document) error {
	points := make([]*pb.PointStruct, len(docs))
	for i, d := range docs {
		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: d.ID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: d.Vector}}},
			Payload: chunkPayload(d),
		}
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

func (r *Repository) Search(ctx context.Context, vec []float32, topK int) ([]vector.SearchResult, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         vec,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	results := make([]vector.SearchResult, len(resp.Result))
	for i, pt := range resp.Result {
		results[i] = chunkResult(pt)
	}
	return results, nil
}

func (r *Repository) Close() error {
	return r.conn.Close()
}

// chunkPayload builds the point payload for a chunk document: the text under
// contentKey plus the string metadata.
func chunkPayload(d vector.Document) map[string]*pb.Value {
	payload := make(map[string]*pb.Value, len(d.Metadata)+1)
	for k, v := range d.Metadata {
		if k == contentKey {
			continue
		}
		payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
	}
	payload[contentKey] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: d.Content}}
	return payload
}

// chunkResult converts a scored point back into a search result, splitting
// the payload into chunk text and metadata.
func chunkResult(pt *pb.ScoredPoint) vector.SearchResult {
	res := vector.SearchResult{
		ID:       pt.Id.GetUuid(),
		Score:    pt.Score,
		Metadata: make(map[string]string, len(pt.Payload)),
	}
	for k, v := range pt.Payload {
		if k == contentKey {
			res.Content = v.GetStringValue()
			continue
		}
		res.Metadata[k] = v.GetStringValue()
	}
	return res
}

var _ vector.Repository = (*Repository)(nil)
