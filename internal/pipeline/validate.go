package pipeline

import (
	"strings"

	"incidentwatch/report-pipeline/models"
	"incidentwatch/report-pipeline/utils"
)

// validateCandidates partitions the extracted candidates by structural
// validity. The check is pure and deterministic: no external calls, no job
// mutation. Invalid candidates end up as outcomeInvalid with the formatted
// field errors as reason; valid ones stay pending for the later stages.
func (p *Pipeline) validateCandidates(candidates []models.Violation) []outcome {
	outcomes := make([]outcome, len(candidates))
	for i, candidate := range candidates {
		outcomes[i] = outcome{candidate: candidate, state: outcomePending}

		if err := p.validate.Struct(candidate); err != nil {
			outcomes[i].fail(outcomeInvalid, strings.Join(utils.FormatValidationErrors(err), "; "))
		}
	}
	return outcomes
}
