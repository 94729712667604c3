package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	postgrest "github.com/supabase-community/postgrest-go"

	"incidentwatch/report-pipeline/models"
)

// ErrJobNotFound is returned when a report job record does not exist.
var ErrJobNotFound = errors.New("report job not found")

const jobsTable = "report_jobs"

// JobStore persists report jobs in the report_jobs table. Stages update the
// record through column-level PATCHes so concurrent fields are never clobbered
// by a full-row rewrite.
type JobStore struct {
	client *postgrest.Client
	logger *logrus.Logger
}

// NewJobStore creates a JobStore backed by the given PostgREST client.
func NewJobStore(client *postgrest.Client, logger *logrus.Logger) *JobStore {
	return &JobStore{client: client, logger: logger}
}

// Create inserts a new job record and returns the stored row.
func (s *JobStore) Create(job *models.ReportJob) (*models.ReportJob, error) {
	var results []models.ReportJob
	// The `Prefer: return=representation` header makes PostgREST return the inserted row(s).
	_, err := s.client.From(jobsTable).Insert(job, false, "", "representation", "").ExecuteTo(&results)
	if err != nil {
		return nil, fmt.Errorf("failed to insert job record: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no record returned after insert, job id: %s", job.ID)
	}

	s.logger.WithField("job_id", job.ID).Info("Created report job record")
	return &results[0], nil
}

// Get fetches a job record by id.
func (s *JobStore) Get(id uuid.UUID) (*models.ReportJob, error) {
	var jobs []models.ReportJob
	_, err := s.client.From(jobsTable).
		Select("*", "", false).
		Eq("id", id.String()).
		Limit(1, "").
		ExecuteTo(&jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job record %s: %w", id, err)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return &jobs[0], nil
}

// Update patches only the given columns of a job record. Callers pass exactly
// the fields their stage owns; sibling columns are untouched.
func (s *JobStore) Update(id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()

	var results []models.ReportJob
	_, err := s.client.From(jobsTable).Update(fields, "", "").Eq("id", id.String()).ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("failed to update job record %s: %w", id, err)
	}

	s.logger.WithFields(logrus.Fields{"job_id": id, "fields": fieldNames(fields)}).Debug("Updated report job record")
	return nil
}

func fieldNames(fields map[string]interface{}) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	return names
}
