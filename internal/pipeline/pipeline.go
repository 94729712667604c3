// Package pipeline turns one queued report job into persisted violation
// records: extraction, structural validation, per-candidate location
// resolution and per-candidate persistence, with job status and progress
// written back at every stage boundary.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"incidentwatch/report-pipeline/internal/extractor"
	"incidentwatch/report-pipeline/internal/geocoder"
	"incidentwatch/report-pipeline/internal/queue"
	"incidentwatch/report-pipeline/internal/store"
	"incidentwatch/report-pipeline/models"
)

// Informational messages stored on jobs that complete without creating
// anything. Both are terminal successes, not failures.
const (
	MsgNoViolationsExtracted = "No violations were extracted from the report"
	MsgAllFailedValidation   = "All parsed violations failed validation"
)

// Progress checkpoints written during one execution attempt, in order.
const (
	progressStarted    = 10
	progressExtracted  = 40
	progressValidating = 50
	progressCreating   = 70
	progressDone       = 100
)

// Extractor parses report text into unvalidated violation candidates.
type Extractor interface {
	Parse(ctx context.Context, reportText string, source *models.SourceAttribution) ([]models.Violation, error)
}

// Geocoder resolves a place name to quality-ranked coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, placeName, adminDivision string) ([]geocoder.Result, error)
}

// JobStore is the durable job record the pipeline reports into.
type JobStore interface {
	Get(id uuid.UUID) (*models.ReportJob, error)
	Update(id uuid.UUID, fields map[string]interface{}) error
}

// ViolationStore persists resolved candidates.
type ViolationStore interface {
	Create(v *models.Violation) (*models.Violation, error)
}

// Pipeline executes report jobs. One Run call processes one job to a terminal
// state; the queue adapter decides whether a returned error is redelivered.
type Pipeline struct {
	jobs       JobStore
	violations ViolationStore
	extractor  Extractor
	geocoder   Geocoder
	validate   *validator.Validate
	logger     *logrus.Logger
}

// New wires a Pipeline from its collaborators.
func New(jobs JobStore, violations ViolationStore, ext Extractor, geo Geocoder, validate *validator.Validate, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		jobs:       jobs,
		violations: violations,
		extractor:  ext,
		geocoder:   geo,
		validate:   validate,
		logger:     logger,
	}
}

// Run processes the job identified by jobID. Errors it returns have already
// been written to the job record (where a record exists); returning them lets
// the queue apply its retry policy. Per-candidate failures never surface here,
// only in the job's failed_violations column.
func (p *Pipeline) Run(ctx context.Context, jobID string) (err error) {
	id, parseErr := uuid.Parse(jobID)
	if parseErr != nil {
		return queue.NonRetryable(fmt.Errorf("malformed job id %q: %w", jobID, parseErr))
	}

	// Error boundary scoped to this one execution: a panic in any stage
	// fails this job and is surfaced to the queue as an ordinary error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
			p.failJob(id, err)
		}
	}()

	log := p.logger.WithField("job_id", id)

	job, err := p.jobs.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			// Nothing to update and nothing a retry could change.
			return queue.NonRetryable(err)
		}
		return err
	}

	if err := p.updateJob(id, map[string]interface{}{
		"status":   models.JobStatusProcessing,
		"progress": progressStarted,
	}); err != nil {
		return err
	}

	candidates, err := p.extractor.Parse(ctx, job.ReportText, job.SourceURL)
	if err != nil {
		p.failJob(id, err)
		if errors.Is(err, extractor.ErrNotConfigured) {
			return queue.NonRetryable(err)
		}
		return err
	}
	log.WithField("candidates", len(candidates)).Info("Extraction finished")

	if err := p.updateJob(id, map[string]interface{}{"progress": progressExtracted}); err != nil {
		return err
	}

	outcomes := p.validateCandidates(candidates)

	if err := p.updateJob(id, map[string]interface{}{
		"status":   models.JobStatusValidation,
		"progress": progressValidating,
	}); err != nil {
		return err
	}

	invalid := collectFailed(outcomes)
	if err := p.updateJob(id, map[string]interface{}{
		"parsed_violations_count": len(candidates),
		"failed_violations":       invalid,
		"status":                  models.JobStatusCreatingViolations,
		"progress":                progressCreating,
	}); err != nil {
		return err
	}

	if !hasPending(outcomes) {
		message := MsgNoViolationsExtracted
		if len(invalid) > 0 {
			message = MsgAllFailedValidation
		}
		log.Info(message)
		return p.updateJob(id, map[string]interface{}{
			"status":        models.JobStatusCompleted,
			"progress":      progressDone,
			"error_message": message,
		})
	}

	// Location resolution and persistence run serially, one candidate at a
	// time. A failure is recorded on that candidate's outcome and the loop
	// moves on.
	for i := range outcomes {
		if outcomes[i].state != outcomePending {
			continue
		}
		p.processCandidate(ctx, job, &outcomes[i])
	}

	createdIDs := make([]uuid.UUID, 0, len(outcomes))
	for i := range outcomes {
		if outcomes[i].state == outcomeCreated {
			createdIDs = append(createdIDs, outcomes[i].createdID)
		}
	}
	failed := collectFailed(outcomes)

	log.WithFields(logrus.Fields{
		"created": len(createdIDs),
		"failed":  len(failed),
	}).Info("Report job completed")

	return p.updateJob(id, map[string]interface{}{
		"status":                   models.JobStatusCompleted,
		"progress":                 progressDone,
		"created_violations_count": len(createdIDs),
		"violation_ids":            createdIDs,
		"failed_violations":        failed,
	})
}

// updateJob writes one stage-boundary update. When the write itself fails the
// job is a job-level failure like any other: the failed status is recorded
// (best-effort) before the error propagates to the queue, so the record never
// sits on a non-terminal status after the queue gives up.
func (p *Pipeline) updateJob(id uuid.UUID, fields map[string]interface{}) error {
	if err := p.jobs.Update(id, fields); err != nil {
		p.failJob(id, err)
		return err
	}
	return nil
}

// processCandidate takes one pending candidate through location resolution
// and persistence, mutating its outcome in place.
func (p *Pipeline) processCandidate(ctx context.Context, job *models.ReportJob, o *outcome) {
	if err := p.resolveLocation(ctx, &o.candidate); err != nil {
		o.fail(outcomePersistFailed, err.Error())
		return
	}
	o.state = outcomeResolved

	created, err := p.persistCandidate(job, &o.candidate)
	if err != nil {
		o.fail(outcomePersistFailed, err.Error())
		return
	}
	o.state = outcomeCreated
	o.createdID = created.ID
}

// failJob writes the terminal failed state before the error propagates to the
// queue, keeping the job record authoritative even when the queue's own
// bookkeeping is opaque.
func (p *Pipeline) failJob(id uuid.UUID, cause error) {
	if err := p.jobs.Update(id, map[string]interface{}{
		"status":        models.JobStatusFailed,
		"error_message": cause.Error(),
	}); err != nil {
		p.logger.WithFields(logrus.Fields{"job_id": id, "error": err.Error()}).Error("Could not record job failure")
	}
}

func collectFailed(outcomes []outcome) []models.FailedViolation {
	failed := make([]models.FailedViolation, 0)
	for i := range outcomes {
		if outcomes[i].state == outcomeInvalid || outcomes[i].state == outcomePersistFailed {
			failed = append(failed, outcomes[i].failedViolation())
		}
	}
	return failed
}

func hasPending(outcomes []outcome) bool {
	for i := range outcomes {
		if outcomes[i].state == outcomePending {
			return true
		}
	}
	return false
}
