package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/services"
)

type CategorizeHandler struct {
	categorizer services.Categorizer
	log         *zap.Logger
}

// NewCategorizeHandler accepts a nil categorizer; the endpoint then answers 503.
func NewCategorizeHandler(categorizer services.Categorizer, log *zap.Logger) *CategorizeHandler {
	return &CategorizeHandler{
		categorizer: categorizer,
		log:         logger.WithFields(log, zap.String("handler", "categorize")),
	}
}

// HandleCategorize handles POST /categorize
func (h *CategorizeHandler) HandleCategorize(c *fiber.Ctx) error {
	if h.categorizer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "categorization is disabled",
		})
	}

	var req models.CategorizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	category, err := h.categorizer.CategorizeCV(c.UserContext(), req.CVText)
	if err != nil {
		if errors.Is(err, services.ErrEmptyCVText) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "cv_text is required",
			})
		}

		var extErr *services.ExternalServiceError
		if errors.As(err, &extErr) && extErr.StatusCode == http.StatusTooManyRequests {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}

		h.log.Error("categorization failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "categorization failed",
		})
	}

	return c.JSON(category)
}
