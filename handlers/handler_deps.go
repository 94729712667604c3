package handlers

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"incidentwatch/report-pipeline/models"
)

// JobStore is what handlers need from the job record store. Kept as an
// interface so handler tests can run against an in-memory fake.
type JobStore interface {
	Create(job *models.ReportJob) (*models.ReportJob, error)
	Get(id uuid.UUID) (*models.ReportJob, error)
}

// Enqueuer hands accepted jobs to the processing queue.
type Enqueuer interface {
	Enqueue(jobID string) error
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Jobs   JobStore
	Queue  Enqueuer
	Logger *logrus.Logger
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(jobs JobStore, queue Enqueuer, logger *logrus.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		Jobs:   jobs,
		Queue:  queue,
		Logger: logger,
	}
}
