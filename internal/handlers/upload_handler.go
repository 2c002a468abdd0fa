package handlers

import (
	"fmt"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/services"
)

type UploadHandler struct {
	jobRepo        repositories.JobRepository
	candidateRepo  repositories.CandidateRepository
	storageService services.StorageService
	worker         services.Worker
	maxFileSize    int64
	log            *zap.Logger
}

func NewUploadHandler(
	jobRepo repositories.JobRepository,
	candidateRepo repositories.CandidateRepository,
	storageService services.StorageService,
	worker services.Worker,
	maxFileSize int64,
	log *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		jobRepo:        jobRepo,
		candidateRepo:  candidateRepo,
		storageService: storageService,
		worker:         worker,
		maxFileSize:    maxFileSize,
		log:            logger.WithFields(log, zap.String("handler", "upload")),
	}
}

// HandleUpload handles POST /jobs/:id/candidates. Every "cv" file becomes a
// queued candidate; screening happens on the worker.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	job, err := lookupJob(c, h.jobRepo)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	cvFiles := form.File["cv"]
	if len(cvFiles) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No files uploaded. Please upload one or more 'cv' files (.pdf, .docx, .doc, .txt, .md).",
		})
	}

	// Reject the whole batch before anything is stored.
	for _, f := range cvFiles {
		if err := h.validate(f); err != nil {
			return err
		}
	}

	responses := make([]models.UploadResponse, 0, len(cvFiles))
	for _, f := range cvFiles {
		filename, filePath, err := h.storageService.SaveFile(f, "cv")
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to save CV file %q", f.Filename),
			})
		}

		candidate := &models.Candidate{
			ID:               uuid.New(),
			JobID:            job.ID,
			Filename:         filename,
			OriginalFileName: f.Filename,
			MIMEType:         f.Header.Get(fiber.HeaderContentType),
			FilePath:         filePath,
			Status:           models.StatusQueued,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}

		if err := h.candidateRepo.Create(candidate); err != nil {
			if delErr := h.storageService.DeleteFile(filename); delErr != nil {
				h.log.Warn("failed to clean up stored file", zap.String(logger.FieldFilename, filename), zap.Error(delErr))
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to save candidate record",
			})
		}

		h.worker.EnqueueJob(candidate.ID)

		responses = append(responses, models.UploadResponse{
			ID:           candidate.ID.String(),
			Filename:     candidate.Filename,
			OriginalName: candidate.OriginalFileName,
			Status:       string(models.StatusQueued),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id":     job.ID.String(),
		"candidates": responses,
	})
}

func (h *UploadHandler) validate(f *multipart.FileHeader) error {
	if !services.IsAllowedUpload(f.Filename) {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("unsupported file type for %q: allowed .pdf, .docx, .doc, .txt, .md", f.Filename))
	}
	if h.maxFileSize > 0 && f.Size > h.maxFileSize {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("CV file %q too large. Max size: %d bytes", f.Filename, h.maxFileSize))
	}
	return nil
}
