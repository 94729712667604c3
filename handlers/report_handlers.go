package handlers

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"incidentwatch/report-pipeline/models"
	"incidentwatch/report-pipeline/utils"
)

// SubmitReportRequest defines the expected JSON structure for submitting an
// incident report for asynchronous processing.
type SubmitReportRequest struct {
	ReportText  string                    `json:"report_text" validate:"required,min=10"`
	SourceURL   *models.SourceAttribution `json:"source_url,omitempty"`
	SubmittedBy string                    `json:"submitted_by" validate:"required"`
}

var validate = validator.New()

// SubmitReport creates a queued report job and enqueues it for processing.
// POST /api/v1/reports
func (h *ApplicationHandler) SubmitReport(c *fiber.Ctx) error {
	payload := new(SubmitReportRequest)
	if err := c.BodyParser(payload); err != nil {
		h.Logger.Errorf("Error parsing report submission: %v", err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}

	payload.ReportText = utils.SanitizeInput(payload.ReportText)
	if err := validate.Struct(payload); err != nil {
		h.Logger.Errorf("Validation error for report submission: %v", err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Validation failed: %v", utils.FormatValidationErrors(err)))
	}

	now := time.Now()
	job := &models.ReportJob{
		ID:                      uuid.New(),
		ReportText:              payload.ReportText,
		SourceURL:               payload.SourceURL,
		SubmittedBy:             payload.SubmittedBy,
		Status:                  models.JobStatusQueued,
		Progress:                0,
		EstimatedProcessingTime: models.EstimateProcessingTime(payload.ReportText),
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	created, err := h.Jobs.Create(job)
	if err != nil {
		h.Logger.Errorf("Error creating report job record: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not create report job")
	}

	if err := h.Queue.Enqueue(created.ID.String()); err != nil {
		h.Logger.Errorf("Error enqueueing report job %s: %v", created.ID, err)
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Report job could not be queued, try again later")
	}

	h.Logger.Infof("Accepted report job %s (estimated %s)", created.ID, created.EstimatedProcessingTime)
	return utils.RespondWithJSON(c, fiber.StatusAccepted, created)
}
