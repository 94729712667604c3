package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"incidentwatch/report-pipeline/internal/store"
	"incidentwatch/report-pipeline/utils"
)

// GetJobStatus retrieves the status of a specific report job. Callers poll
// this until status reaches completed or failed; even completed jobs may
// carry per-candidate failures in failed_violations.
// GET /api/v1/jobs/:jobId
func (h *ApplicationHandler) GetJobStatus(c *fiber.Ctx) error {
	jobIDStr := c.Params("jobId")
	jobID, err := uuid.Parse(jobIDStr)
	if err != nil {
		h.Logger.Warnf("Invalid job ID format: %s", jobIDStr)
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid job ID format")
	}

	job, err := h.Jobs.Get(jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Job not found")
		}
		h.Logger.Errorf("Error fetching job %s: %v", jobID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not retrieve job status")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, job)
}
