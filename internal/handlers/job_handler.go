package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
)

type JobHandler struct {
	jobRepo       repositories.JobRepository
	candidateRepo repositories.CandidateRepository
}

func NewJobHandler(jobRepo repositories.JobRepository, candidateRepo repositories.CandidateRepository) *JobHandler {
	return &JobHandler{
		jobRepo:       jobRepo,
		candidateRepo: candidateRepo,
	}
}

// HandleCreateJob handles POST /jobs
func (h *JobHandler) HandleCreateJob(c *fiber.Ctx) error {
	var req models.CreateJobRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "title is required",
		})
	}

	job := &models.Job{
		ID:              uuid.New(),
		Title:           title,
		Description:     strings.TrimSpace(req.Description),
		MandatorySkills: nonNil(req.MandatorySkills),
		PreferredSkills: nonNil(req.PreferredSkills),
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if err := h.jobRepo.Create(job); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create job",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(job)
}

// HandleGetJob handles GET /jobs/:id
func (h *JobHandler) HandleGetJob(c *fiber.Ctx) error {
	job, err := lookupJob(c, h.jobRepo)
	if err != nil {
		return err
	}
	return c.JSON(job)
}

// HandleListCandidates handles GET /jobs/:id/candidates, best score first.
func (h *JobHandler) HandleListCandidates(c *fiber.Ctx) error {
	job, err := lookupJob(c, h.jobRepo)
	if err != nil {
		return err
	}

	candidates, err := h.candidateRepo.FindByJob(job.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list candidates",
		})
	}

	if candidates == nil {
		candidates = []models.Candidate{}
	}

	return c.JSON(fiber.Map{
		"job_id":     job.ID.String(),
		"candidates": candidates,
	})
}

// lookupJob resolves the :id param. Failures are *fiber.Error values for
// ErrorHandler to render.
func lookupJob(c *fiber.Ctx, jobRepo repositories.JobRepository) (*models.Job, error) {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid job ID format")
	}

	job, err := jobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Job not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load job")
	}

	return job, nil
}

func nonNil(s models.SkillList) []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}
