package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/services"
)

type fakeCategorizer struct {
	result *models.CVCategory
	err    error
	got    string
}

func (f *fakeCategorizer) CategorizeCV(_ context.Context, text string) (*models.CVCategory, error) {
	f.got = text
	if text == "" {
		return nil, services.ErrEmptyCVText
	}
	return f.result, f.err
}

func newCategorizeApp(categorizer services.Categorizer) *fiber.App {
	app := newTestApp()
	h := NewCategorizeHandler(categorizer, zap.NewNop())
	app.Post("/categorize", h.HandleCategorize)
	return app
}

func TestCategorize(t *testing.T) {
	categorizer := &fakeCategorizer{result: &models.CVCategory{Category: "Chef", Confidence: 77, Reasoning: "ten years in kitchens"}}
	app := newCategorizeApp(categorizer)

	status, body := doRequest(t, app, jsonRequest(t, http.MethodPost, "/categorize", `{"cv_text": "Head chef at a bistro"}`))

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Head chef at a bistro", categorizer.got)
	assert.Equal(t, "Chef", body["category"])
	assert.EqualValues(t, 77, body["confidence"])
	assert.Equal(t, "ten years in kitchens", body["reasoning"])
}

func TestCategorizeErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "empty text", body: `{"cv_text": ""}`, wantStatus: http.StatusBadRequest, wantError: "cv_text is required"},
		{name: "invalid payload", body: `[`, wantStatus: http.StatusBadRequest, wantError: "Invalid request payload"},
		{
			name:       "rate limited",
			err:        fmt.Errorf("wrapped: %w", &services.ExternalServiceError{Service: "gemini", StatusCode: http.StatusTooManyRequests}),
			body:       `{"cv_text": "Pilot"}`,
			wantStatus: http.StatusTooManyRequests,
			wantError:  "Rate limit exceeded. Please try again later.",
		},
		{
			name:       "model failure",
			err:        errors.New("schema violation"),
			body:       `{"cv_text": "Pilot"}`,
			wantStatus: http.StatusBadGateway,
			wantError:  "categorization failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newCategorizeApp(&fakeCategorizer{err: tt.err})

			status, body := doRequest(t, app, jsonRequest(t, http.MethodPost, "/categorize", tt.body))

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestCategorizeDisabled(t *testing.T) {
	app := newCategorizeApp(nil)

	status, body := doRequest(t, app, jsonRequest(t, http.MethodPost, "/categorize", `{"cv_text": "Pilot"}`))

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "categorization is disabled", body["error"])
}
