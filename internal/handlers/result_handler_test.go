package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/cv-screener/internal/models"
)

func newResultApp(candidates *fakeCandidateRepo, worker *fakeWorker) *fiber.App {
	app := newTestApp()
	h := NewResultHandler(candidates, worker)
	app.Get("/candidates/:id", h.HandleGetResult)
	app.Post("/candidates/:id/retry", h.HandleRetry)
	return app
}

func TestGetResultCompleted(t *testing.T) {
	score, confidence := 82.5, 64.0
	decision := models.DecisionReject
	c := &models.Candidate{
		ID:               uuid.New(),
		JobID:            uuid.New(),
		Status:           models.StatusCompleted,
		Name:             "Jane Doe",
		Skills:           []string{"go", "sql"},
		ExtractionMethod: string(models.MethodTextLayer),
		MatchScore:       &score,
		Decision:         &decision,
		MissingSkills:    []string{"kubernetes"},
		Category:         "Information Technology",
		CategoryScore:    &confidence,
	}
	app := newResultApp(newFakeCandidateRepo(c), &fakeWorker{})

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/candidates/"+c.ID.String(), nil))

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", body["status"])
	assert.NotContains(t, body, "error_message")

	result := body["result"].(map[string]any)
	assert.EqualValues(t, 82.5, result["score"])
	assert.Equal(t, "reject", result["decision"])
	assert.Equal(t, "text_layer", result["extraction_method"])
	assert.Equal(t, []any{"kubernetes"}, result["missing_skills"])
	assert.Equal(t, map[string]any{"category": "Information Technology", "confidence": 64.0, "reasoning": ""}, result["category"])

	candidate := result["candidate"].(map[string]any)
	assert.Equal(t, "Jane Doe", candidate["name"])
	assert.Equal(t, []any{}, candidate["links"])
}

func TestGetResultFailedAndPending(t *testing.T) {
	msg := "could not read this document"
	failed := &models.Candidate{ID: uuid.New(), JobID: uuid.New(), Status: models.StatusFailed, ErrorMessage: &msg}
	queued := &models.Candidate{ID: uuid.New(), JobID: uuid.New(), Status: models.StatusQueued}
	app := newResultApp(newFakeCandidateRepo(failed, queued), &fakeWorker{})

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/candidates/"+failed.ID.String(), nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "failed", body["status"])
	assert.Equal(t, msg, body["error_message"])
	assert.NotContains(t, body, "result")

	status, body = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/candidates/"+queued.ID.String(), nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "queued", body["status"])
	assert.NotContains(t, body, "result")
}

func TestGetResultLookupErrors(t *testing.T) {
	app := newResultApp(newFakeCandidateRepo(), &fakeWorker{})

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/candidates/xyz", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid candidate ID format", body["error"])

	status, body = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/candidates/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Candidate not found", body["error"])
}

func TestRetry(t *testing.T) {
	msg := "could not read this document"
	failed := &models.Candidate{ID: uuid.New(), JobID: uuid.New(), Status: models.StatusFailed, ErrorMessage: &msg}
	done := &models.Candidate{ID: uuid.New(), JobID: uuid.New(), Status: models.StatusCompleted}
	worker := &fakeWorker{}
	app := newResultApp(newFakeCandidateRepo(failed, done), worker)

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodPost, "/candidates/"+failed.ID.String()+"/retry", nil))
	require.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, "queued", body["status"])
	assert.Equal(t, models.StatusQueued, failed.Status)
	assert.Nil(t, failed.ErrorMessage)
	assert.Equal(t, []uuid.UUID{failed.ID}, worker.enqueued)

	status, body = doRequest(t, app, httptest.NewRequest(http.MethodPost, "/candidates/"+done.ID.String()+"/retry", nil))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "completed", body["status"])
	assert.Len(t, worker.enqueued, 1)
}
