package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	postgrest "github.com/supabase-community/postgrest-go"

	"incidentwatch/report-pipeline/models"
	"incidentwatch/report-pipeline/utils"
)

// ErrInvalidViolation marks a create that was rejected by schema validation,
// as opposed to an infrastructure failure. The persistence stage relies on the
// distinction only for logging; both are recorded per-candidate.
var ErrInvalidViolation = errors.New("violation failed schema validation")

const violationsTable = "violations"

// ViolationStore persists violations in the violations table.
type ViolationStore struct {
	client   *postgrest.Client
	validate *validator.Validate
	logger   *logrus.Logger
}

// NewViolationStore creates a ViolationStore. The validator runs against every
// candidate before the insert is attempted.
func NewViolationStore(client *postgrest.Client, validate *validator.Validate, logger *logrus.Logger) *ViolationStore {
	return &ViolationStore{client: client, validate: validate, logger: logger}
}

// Create validates and inserts one violation, returning the stored row with
// its assigned id.
func (s *ViolationStore) Create(v *models.Violation) (*models.Violation, error) {
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidViolation, strings.Join(utils.FormatValidationErrors(err), "; "))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidViolation, err)
	}

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	now := time.Now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	var results []models.Violation
	_, err := s.client.From(violationsTable).Insert(v, false, "", "representation", "").ExecuteTo(&results)
	if err != nil {
		return nil, fmt.Errorf("failed to insert violation: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no record returned after violation insert")
	}

	s.logger.WithFields(logrus.Fields{"violation_id": results[0].ID, "type": results[0].Type}).Info("Created violation record")
	return &results[0], nil
}
