package pipeline

import (
	"incidentwatch/report-pipeline/models"
)

// persistCandidate attributes a resolved candidate to the submitting
// principal, folds the job-level source attribution into its source fields,
// and creates the permanent violation record. Any store error is reported to
// the caller for per-candidate aggregation; the batch never aborts here.
func (p *Pipeline) persistCandidate(job *models.ReportJob, v *models.Violation) (*models.Violation, error) {
	v.CreatedBy = job.SubmittedBy
	v.UpdatedBy = job.SubmittedBy

	if job.SourceURL != nil && job.SourceURL.Name != "" {
		if v.Source.En != "" {
			v.Source.En = v.Source.En + ". " + job.SourceURL.Name
		} else {
			v.Source.En = job.SourceURL.Name
		}
		if job.SourceURL.URL != nil && *job.SourceURL.URL != "" {
			v.SourceURL.En = *job.SourceURL.URL
		}
	}

	return p.violations.Create(v)
}
