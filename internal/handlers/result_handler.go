package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/services"
)

type ResultHandler struct {
	candidateRepo repositories.CandidateRepository
	worker        services.Worker
}

func NewResultHandler(candidateRepo repositories.CandidateRepository, worker services.Worker) *ResultHandler {
	return &ResultHandler{
		candidateRepo: candidateRepo,
		worker:        worker,
	}
}

// HandleGetResult handles GET /candidates/:id
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	candidate, err := h.findCandidate(c)
	if err != nil {
		return err
	}

	return c.JSON(toResultResponse(candidate))
}

// HandleRetry handles POST /candidates/:id/retry. Only failed candidates can
// be queued again.
func (h *ResultHandler) HandleRetry(c *fiber.Ctx) error {
	candidate, err := h.findCandidate(c)
	if err != nil {
		return err
	}

	if candidate.Status != models.StatusFailed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":  "Only failed candidates can be retried",
			"status": string(candidate.Status),
		})
	}

	if err := h.candidateRepo.UpdateStatus(candidate.ID, models.StatusQueued); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to queue candidate",
		})
	}

	h.worker.EnqueueJob(candidate.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.ResultResponse{
		ID:     candidate.ID.String(),
		JobID:  candidate.JobID.String(),
		Status: string(models.StatusQueued),
	})
}

func (h *ResultHandler) findCandidate(c *fiber.Ctx) (*models.Candidate, error) {
	candidateID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid candidate ID format")
	}

	candidate, err := h.candidateRepo.FindByID(candidateID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Candidate not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load candidate")
	}

	return candidate, nil
}

func toResultResponse(candidate *models.Candidate) models.ResultResponse {
	response := models.ResultResponse{
		ID:     candidate.ID.String(),
		JobID:  candidate.JobID.String(),
		Status: string(candidate.Status),
	}

	if candidate.Status == models.StatusCompleted {
		data := &models.ScreeningData{
			Candidate: models.ExtractedCandidate{
				Name:   candidate.Name,
				Email:  candidate.Email,
				Phone:  candidate.Phone,
				Links:  orEmpty(candidate.Links),
				Skills: orEmpty(candidate.Skills),
			},
			ExtractionMethod: candidate.ExtractionMethod,
			MissingSkills:    orEmpty(candidate.MissingSkills),
		}
		if candidate.MatchScore != nil {
			data.Score = *candidate.MatchScore
		}
		if candidate.Decision != nil {
			data.Decision = *candidate.Decision
		}
		if candidate.Category != "" {
			data.Category = &models.CVCategory{Category: candidate.Category, Reasoning: candidate.CategoryReason}
			if candidate.CategoryScore != nil {
				data.Category.Confidence = *candidate.CategoryScore
			}
		}
		response.Result = data
	}

	if candidate.Status == models.StatusFailed && candidate.ErrorMessage != nil && *candidate.ErrorMessage != "" {
		response.ErrorMessage = candidate.ErrorMessage
	}

	return response
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
