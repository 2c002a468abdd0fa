package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
)

const (
	indexChunkSize    = 1000
	indexChunkOverlap = 200
)

// CandidateIndex keeps screened CVs searchable by semantic similarity to a job.
type CandidateIndex interface {
	IndexCandidate(ctx context.Context, jobID, candidateID uuid.UUID, document string) error
	SimilarCandidates(ctx context.Context, job *models.Job, limit int) ([]SearchResult, error)
}

type candidateIndex struct {
	store         VectorStore
	embedder      Embedder
	chunker       TextChunker
	promptBuilder *PromptBuilder
	log           *zap.Logger
}

func NewCandidateIndex(store VectorStore, embedder Embedder, log *zap.Logger) CandidateIndex {
	return &candidateIndex{
		store:         store,
		embedder:      embedder,
		chunker:       NewTextChunker(),
		promptBuilder: NewPromptBuilder(),
		log:           logger.WithFields(log, zap.String("component", "candidate_index")),
	}
}

// IndexCandidate replaces any previously indexed chunks for the candidate.
func (i *candidateIndex) IndexCandidate(ctx context.Context, jobID, candidateID uuid.UUID, document string) error {
	if err := i.store.DeleteCandidate(ctx, candidateID.String()); err != nil {
		return fmt.Errorf("failed to clear previous chunks: %w", err)
	}

	chunks := i.chunker.ChunkText(document, indexChunkSize, indexChunkOverlap)
	points := make([]VectorChunk, 0, len(chunks))

	for n, chunk := range chunks {
		embedding, err := i.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d: %w", n, err)
		}
		points = append(points, VectorChunk{
			CandidateID: candidateID.String(),
			JobID:       jobID.String(),
			Index:       n,
			Text:        chunk,
			Embedding:   embedding,
		})
	}

	if err := i.store.UpsertChunks(ctx, points); err != nil {
		return err
	}

	i.log.Debug("candidate indexed",
		zap.String(logger.FieldCandidateID, candidateID.String()),
		zap.Int("chunks", len(points)))
	return nil
}

// SimilarCandidates returns at most limit candidates for the job, best
// matching chunk first, one entry per candidate.
func (i *candidateIndex) SimilarCandidates(ctx context.Context, job *models.Job, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	embedding, err := i.embedder.GenerateEmbedding(ctx, i.promptBuilder.BuildJobQuery(job))
	if err != nil {
		return nil, fmt.Errorf("failed to embed job query: %w", err)
	}

	// Several chunks can belong to one candidate, so over-fetch before collapsing.
	hits, err := i.store.SearchSimilar(ctx, embedding, job.ID.String(), limit*3)
	if err != nil {
		return nil, err
	}

	best := make(map[string]SearchResult)
	for _, hit := range hits {
		if hit.CandidateID == "" {
			continue
		}
		if prev, ok := best[hit.CandidateID]; !ok || hit.Score > prev.Score {
			best[hit.CandidateID] = hit
		}
	}

	results := make([]SearchResult, 0, len(best))
	for _, r := range best {
		results = append(results, r)
	}
	sort.Slice(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		return results[a].CandidateID < results[b].CandidateID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
