package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/services"
)

// DocumentScreener is the part of *services.Screener the stateless endpoints use.
type DocumentScreener interface {
	Extract(ctx context.Context, doc services.Document) (*services.ExtractionOutcome, error)
	Score(skills []string, reqs models.JobRequirements) models.MatchResult
}

type ScreenHandler struct {
	screener    DocumentScreener
	maxFileSize int64
	log         *zap.Logger
}

func NewScreenHandler(screener DocumentScreener, maxFileSize int64, log *zap.Logger) *ScreenHandler {
	return &ScreenHandler{
		screener:    screener,
		maxFileSize: maxFileSize,
		log:         logger.WithFields(log, zap.String("handler", "screen")),
	}
}

// HandleExtract handles POST /extract with a single multipart "cv" file.
func (h *ScreenHandler) HandleExtract(c *fiber.Ctx) error {
	f, err := c.FormFile("cv")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "a 'cv' file is required",
		})
	}

	if h.maxFileSize > 0 && f.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("CV file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	src, err := f.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to open uploaded file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read uploaded file",
		})
	}

	outcome, err := h.screener.Extract(c.UserContext(), services.Document{
		Filename: f.Filename,
		MIMEType: f.Header.Get(fiber.HeaderContentType),
		Data:     data,
	})
	if err != nil {
		if errors.Is(err, services.ErrExtractionFailed) {
			h.log.Info("document unreadable", zap.String(logger.FieldFilename, f.Filename), zap.Error(err))
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": services.UnreadableDocumentMessage,
			})
		}
		h.log.Error("extraction failed", zap.String(logger.FieldFilename, f.Filename), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "extraction failed",
		})
	}

	return c.JSON(models.ExtractResponse{
		Method:    string(outcome.Method),
		Candidate: outcome.Candidate,
	})
}

// HandleScore handles POST /score
func (h *ScreenHandler) HandleScore(c *fiber.Ctx) error {
	var req models.ScoreRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	result := h.screener.Score(req.CandidateSkills, models.JobRequirements{
		MandatorySkills: req.MandatorySkills,
		PreferredSkills: req.PreferredSkills,
	})

	return c.JSON(result)
}
