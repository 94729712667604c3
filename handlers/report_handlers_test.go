package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incidentwatch/report-pipeline/internal/store"
	"incidentwatch/report-pipeline/models"
)

type fakeJobStore struct {
	jobs     map[uuid.UUID]*models.ReportJob
	createNR int
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: make(map[uuid.UUID]*models.ReportJob)}
}

func (s *fakeJobStore) Create(job *models.ReportJob) (*models.ReportJob, error) {
	s.createNR++
	s.jobs[job.ID] = job
	return job, nil
}

func (s *fakeJobStore) Get(id uuid.UUID) (*models.ReportJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrJobNotFound, id)
	}
	return job, nil
}

type fakeEnqueuer struct {
	enqueued []string
	err      error
}

func (e *fakeEnqueuer) Enqueue(jobID string) error {
	if e.err != nil {
		return e.err
	}
	e.enqueued = append(e.enqueued, jobID)
	return nil
}

func testApp(jobs JobStore, queue Enqueuer) *fiber.App {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	h := NewApplicationHandler(jobs, queue, logger)

	app := fiber.New()
	app.Post("/api/v1/reports", h.SubmitReport)
	app.Get("/api/v1/jobs/:jobId", h.GetJobStatus)
	return app
}

func TestSubmitReportCreatesQueuedJob(t *testing.T) {
	jobs := newFakeJobStore()
	enq := &fakeEnqueuer{}
	app := testApp(jobs, enq)

	body, _ := json.Marshal(map[string]interface{}{
		"report_text":  "Shelling struck the eastern district market this morning, several casualties reported.",
		"submitted_by": "user-42",
		"source_url":   map[string]string{"name": "Regional Observatory"},
	})
	req := httptest.NewRequest("POST", "/api/v1/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	require.Equal(t, 1, jobs.createNR)
	require.Len(t, enq.enqueued, 1)

	created, err := jobs.Get(uuid.MustParse(enq.enqueued[0]))
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, created.Status)
	assert.Equal(t, 0, created.Progress)
	assert.Equal(t, "1 minutes", created.EstimatedProcessingTime)
	assert.Equal(t, "user-42", created.SubmittedBy)
}

func TestSubmitReportRejectsMissingFields(t *testing.T) {
	app := testApp(newFakeJobStore(), &fakeEnqueuer{})

	body, _ := json.Marshal(map[string]interface{}{"report_text": "too short"})
	req := httptest.NewRequest("POST", "/api/v1/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmitReportQueueFull(t *testing.T) {
	jobs := newFakeJobStore()
	app := testApp(jobs, &fakeEnqueuer{err: fmt.Errorf("queue is full")})

	body, _ := json.Marshal(map[string]interface{}{
		"report_text":  "A long enough report text for validation to pass.",
		"submitted_by": "user-42",
	})
	req := httptest.NewRequest("POST", "/api/v1/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestGetJobStatus(t *testing.T) {
	jobs := newFakeJobStore()
	job := &models.ReportJob{ID: uuid.New(), Status: models.JobStatusProcessing, Progress: 40}
	jobs.jobs[job.ID] = job
	app := testApp(jobs, &fakeEnqueuer{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/jobs/"+job.ID.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Status string           `json:"status"`
		Data   models.ReportJob `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "success", envelope.Status)
	assert.Equal(t, models.JobStatusProcessing, envelope.Data.Status)
	assert.Equal(t, 40, envelope.Data.Progress)
}

func TestGetJobStatusNotFound(t *testing.T) {
	app := testApp(newFakeJobStore(), &fakeEnqueuer{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/jobs/"+uuid.NewString(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetJobStatusBadID(t *testing.T) {
	app := testApp(newFakeJobStore(), &fakeEnqueuer{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/jobs/not-a-uuid", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
