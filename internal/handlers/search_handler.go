package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/services"
)

const (
	defaultSimilarLimit = 10
	maxSimilarLimit     = 50
	excerptLength       = 300
)

type SearchHandler struct {
	jobRepo       repositories.JobRepository
	candidateRepo repositories.CandidateRepository
	index         services.CandidateIndex
	log           *zap.Logger
}

// NewSearchHandler accepts a nil index; the endpoint then answers 503.
func NewSearchHandler(
	jobRepo repositories.JobRepository,
	candidateRepo repositories.CandidateRepository,
	index services.CandidateIndex,
	log *zap.Logger,
) *SearchHandler {
	return &SearchHandler{
		jobRepo:       jobRepo,
		candidateRepo: candidateRepo,
		index:         index,
		log:           logger.WithFields(log, zap.String("handler", "search")),
	}
}

// HandleSimilar handles GET /jobs/:id/similar?limit=
func (h *SearchHandler) HandleSimilar(c *fiber.Ctx) error {
	if h.index == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "similarity search is disabled",
		})
	}

	job, err := lookupJob(c, h.jobRepo)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", defaultSimilarLimit)
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	if limit > maxSimilarLimit {
		limit = maxSimilarLimit
	}

	hits, err := h.index.SimilarCandidates(c.UserContext(), job, limit)
	if err != nil {
		h.log.Error("similarity search failed", zap.String(logger.FieldJobID, job.ID.String()), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "similarity search failed",
		})
	}

	names := h.candidateNames(hits)

	results := make([]models.SimilarCandidate, 0, len(hits))
	for _, hit := range hits {
		results = append(results, models.SimilarCandidate{
			CandidateID: hit.CandidateID,
			Name:        names[hit.CandidateID],
			Score:       hit.Score,
			Excerpt:     logger.TruncateForLog(hit.Text, excerptLength),
		})
	}

	return c.JSON(fiber.Map{
		"job_id":     job.ID.String(),
		"candidates": results,
	})
}

// candidateNames is best effort; a lookup failure only leaves names blank.
func (h *SearchHandler) candidateNames(hits []services.SearchResult) map[string]string {
	names := make(map[string]string, len(hits))

	ids := make([]uuid.UUID, 0, len(hits))
	for _, hit := range hits {
		if id, err := uuid.Parse(hit.CandidateID); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return names
	}

	candidates, err := h.candidateRepo.FindByIDs(ids)
	if err != nil {
		h.log.Warn("failed to load candidate names", zap.Error(err))
		return names
	}
	for _, cand := range candidates {
		names[cand.ID.String()] = cand.Name
	}
	return names
}
