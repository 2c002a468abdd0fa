package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/services"
)

var errStore = errors.New("store unavailable")

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.Job
	err  error
}

func newFakeJobRepo(jobs ...*models.Job) *fakeJobRepo {
	r := &fakeJobRepo{jobs: make(map[uuid.UUID]*models.Job)}
	for _, j := range jobs {
		r.jobs[j.ID] = j
	}
	return r
}

func (r *fakeJobRepo) Create(job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *fakeJobRepo) FindByID(id uuid.UUID) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	j, ok := r.jobs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return j, nil
}

type fakeCandidateRepo struct {
	mu         sync.Mutex
	candidates map[uuid.UUID]*models.Candidate
	createErr  error
}

func newFakeCandidateRepo(cs ...*models.Candidate) *fakeCandidateRepo {
	r := &fakeCandidateRepo{candidates: make(map[uuid.UUID]*models.Candidate)}
	for _, c := range cs {
		r.candidates[c.ID] = c
	}
	return r
}

func (r *fakeCandidateRepo) Create(c *models.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.candidates[c.ID] = c
	return nil
}

func (r *fakeCandidateRepo) FindByID(id uuid.UUID) (*models.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.candidates[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return c, nil
}

func (r *fakeCandidateRepo) FindByJob(jobID uuid.UUID) ([]models.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Candidate
	for _, c := range r.candidates {
		if c.JobID == jobID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OriginalFileName < out[j].OriginalFileName })
	return out, nil
}

func (r *fakeCandidateRepo) FindByIDs(ids []uuid.UUID) ([]models.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Candidate
	for _, id := range ids {
		if c, ok := r.candidates[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCandidateRepo) UpdateStatus(id uuid.UUID, status models.CandidateStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.candidates[id]
	if !ok {
		return repositories.ErrNotFound
	}
	c.Status = status
	if status == models.StatusQueued {
		c.ErrorMessage = nil
	}
	return nil
}

func (r *fakeCandidateRepo) UpdateResult(uuid.UUID, *repositories.CandidateUpdateData) error {
	return nil
}

func (r *fakeCandidateRepo) UpdateError(uuid.UUID, string) error {
	return nil
}

func (r *fakeCandidateRepo) FindPendingJobs(int) ([]models.Candidate, error) {
	return nil, nil
}

type fakeWorker struct {
	mu       sync.Mutex
	enqueued []uuid.UUID
}

func (w *fakeWorker) Start(context.Context) {}
func (w *fakeWorker) Stop()                 {}

func (w *fakeWorker) EnqueueJob(id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enqueued = append(w.enqueued, id)
}

type fakeIndex struct {
	hits []services.SearchResult
	err  error
	got  int
}

func (i *fakeIndex) IndexCandidate(context.Context, uuid.UUID, uuid.UUID, string) error {
	return nil
}

func (i *fakeIndex) SimilarCandidates(_ context.Context, _ *models.Job, limit int) ([]services.SearchResult, error) {
	i.got = limit
	return i.hits, i.err
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
}

type formFile struct {
	field       string
	name        string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, target string, files ...formFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		if f.contentType != "" {
			header.Set("Content-Type", f.contentType)
		}
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, target, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, target, payload string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, target, bytes.NewBufferString(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), "body: %s", raw)
	}
	return resp.StatusCode, body
}
