package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/logger"
)

// VectorStore persists embedded CV chunks keyed by candidate and job.
type VectorStore interface {
	InitCollection(ctx context.Context) error
	UpsertChunks(ctx context.Context, chunks []VectorChunk) error
	SearchSimilar(ctx context.Context, queryEmbedding []float32, jobID string, limit int) ([]SearchResult, error)
	DeleteCandidate(ctx context.Context, candidateID string) error
}

type VectorChunk struct {
	CandidateID string
	JobID       string
	Index       int
	Text        string
	Embedding   []float32
}

type SearchResult struct {
	CandidateID string
	JobID       string
	Score       float32
	Text        string
}

type qdrantService struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
	log            *zap.Logger
}

func NewQdrantService(urlStr, apiKey, collectionName string, log *zap.Logger) (VectorStore, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantService{
		client:         client,
		collectionName: collectionName,
		vectorSize:     768, // text-embedding-004
		log:            logger.WithFields(log, zap.String("component", "qdrant")),
	}, nil
}

// InitCollection implements VectorStore.
func (q *qdrantService) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		q.log.Info("qdrant collection already exists", zap.String("collection", q.collectionName))
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.log.Info("qdrant collection created", zap.String("collection", q.collectionName))
	return nil
}

// UpsertChunks implements VectorStore.
func (q *qdrantService) UpsertChunks(ctx context.Context, chunks []VectorChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, chunk := range chunks {
		point, err := chunkPoint(chunk)
		if err != nil {
			return err
		}
		points = append(points, point)
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// SearchSimilar implements VectorStore.
func (q *qdrantService) SearchSimilar(ctx context.Context, queryEmbedding []float32, jobID string, limit int) ([]SearchResult, error) {
	var filter *qdrant.Filter
	if jobID != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("job_id", jobID),
			},
		}
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, point := range points {
		results = append(results, SearchResult{
			CandidateID: payloadString(point.Payload, "candidate_id"),
			JobID:       payloadString(point.Payload, "job_id"),
			Text:        payloadString(point.Payload, "text"),
			Score:       point.Score,
		})
	}

	return results, nil
}

// DeleteCandidate implements VectorStore.
func (q *qdrantService) DeleteCandidate(ctx context.Context, candidateID string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewMatch("candidate_id", candidateID),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete candidate points: %w", err)
	}

	return nil
}

// chunkPoint derives the point ID from candidate and chunk index, so
// re-indexing a candidate overwrites its points instead of duplicating them.
func chunkPoint(chunk VectorChunk) (*qdrant.PointStruct, error) {
	payload, err := qdrant.TryValueMap(map[string]any{
		"candidate_id": chunk.CandidateID,
		"job_id":       chunk.JobID,
		"chunk":        chunk.Index,
		"text":         chunk.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid payload for chunk %d: %w", chunk.Index, err)
	}

	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", chunk.CandidateID, chunk.Index)))

	return &qdrant.PointStruct{
		Id:      qdrant.NewID(id.String()),
		Vectors: qdrant.NewVectors(chunk.Embedding...),
		Payload: payload,
	}, nil
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.GetKind().(*qdrant.Value_StringValue); ok {
			return s.StringValue
		}
	}
	return ""
}
