package pipeline

import (
	"github.com/google/uuid"

	"incidentwatch/report-pipeline/models"
)

// outcomeState tracks a candidate through the pipeline. The progression is
// pending -> invalid (validation stage) or pending -> resolved -> created /
// persistFailed. A location resolution failure lands in persistFailed: the
// candidate was structurally valid but could not be saved.
type outcomeState int

const (
	outcomePending outcomeState = iota
	outcomeInvalid
	outcomeResolved
	outcomeCreated
	outcomePersistFailed
)

// outcome carries one candidate and its terminal (or intermediate) state.
// Aggregating job results from outcomes rather than ad-hoc slices keeps the
// per-candidate isolation contract explicit: a candidate's failure lives in
// its own outcome and cannot abort a sibling.
type outcome struct {
	candidate models.Violation
	state     outcomeState
	reason    string
	createdID uuid.UUID
}

func (o *outcome) fail(state outcomeState, reason string) {
	o.state = state
	o.reason = reason
}

func (o *outcome) failedViolation() models.FailedViolation {
	return models.FailedViolation{Violation: o.candidate, Error: o.reason}
}
