package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/services"
)

func newSearchApp(job *models.Job, candidates *fakeCandidateRepo, index services.CandidateIndex) *fiber.App {
	app := newTestApp()
	h := NewSearchHandler(newFakeJobRepo(job), candidates, index, zap.NewNop())
	app.Get("/jobs/:id/similar", h.HandleSimilar)
	return app
}

func TestSimilar(t *testing.T) {
	job := &models.Job{ID: uuid.New(), Title: "Backend"}
	known := &models.Candidate{ID: uuid.New(), JobID: job.ID, Name: "Jane Doe"}
	index := &fakeIndex{hits: []services.SearchResult{
		{CandidateID: known.ID.String(), Score: 0.9, Text: strings.Repeat("go ", 200)},
		{CandidateID: "not-a-uuid", Score: 0.5, Text: "short"},
	}}
	app := newSearchApp(job, newFakeCandidateRepo(known), index)

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID.String()+"/similar?limit=5", nil))

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 5, index.got)
	assert.Equal(t, job.ID.String(), body["job_id"])

	list := body["candidates"].([]any)
	require.Len(t, list, 2)
	first := list[0].(map[string]any)
	assert.Equal(t, "Jane Doe", first["name"])
	assert.InDelta(t, 0.9, first["score"].(float64), 1e-6)
	assert.LessOrEqual(t, len(first["excerpt"].(string)), 303)

	second := list[1].(map[string]any)
	assert.NotContains(t, second, "name")
	assert.Equal(t, "short", second["excerpt"])
}

func TestSimilarLimits(t *testing.T) {
	job := &models.Job{ID: uuid.New(), Title: "Backend"}
	index := &fakeIndex{}
	app := newSearchApp(job, newFakeCandidateRepo(), index)

	tests := map[string]int{
		"":           defaultSimilarLimit,
		"?limit=0":   defaultSimilarLimit,
		"?limit=-3":  defaultSimilarLimit,
		"?limit=500": maxSimilarLimit,
		"?limit=7":   7,
	}
	for query, want := range tests {
		status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID.String()+"/similar"+query, nil))
		require.Equal(t, http.StatusOK, status, query)
		assert.Equal(t, want, index.got, query)
		assert.Equal(t, []any{}, body["candidates"], query)
	}
}

func TestSimilarDisabled(t *testing.T) {
	job := &models.Job{ID: uuid.New(), Title: "Backend"}
	app := newSearchApp(job, newFakeCandidateRepo(), nil)

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID.String()+"/similar", nil))

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "similarity search is disabled", body["error"])
}

func TestSimilarSearchFailure(t *testing.T) {
	job := &models.Job{ID: uuid.New(), Title: "Backend"}
	app := newSearchApp(job, newFakeCandidateRepo(), &fakeIndex{err: errors.New("qdrant down")})

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID.String()+"/similar", nil))

	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "similarity search failed", body["error"])

	status, _ = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/jobs/"+uuid.NewString()+"/similar", nil))
	assert.Equal(t, http.StatusNotFound, status)
}
