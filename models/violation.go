package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// LocalizedText holds the Arabic and English renderings of a text field.
// Either language may be empty; which ones are required depends on the field.
type LocalizedText struct {
	En string `json:"en,omitempty"`
	Ar string `json:"ar,omitempty"`
}

// Empty reports whether neither language carries any text.
func (t LocalizedText) Empty() bool {
	return t.En == "" && t.Ar == ""
}

// Location is the place a violation occurred. Coordinates are [longitude,
// latitude] and are only set once the location has been geocoded.
//
// Name intentionally carries no required tag: a candidate without a location
// name passes structural validation and is rejected later by the location
// resolution stage, so the failure is reported per-candidate with the
// resolution error message rather than as a validation error.
type Location struct {
	Name                   LocalizedText `json:"name"`
	AdministrativeDivision LocalizedText `json:"administrative_division"`
	Coordinates            []float64     `json:"coordinates,omitempty" validate:"omitempty,len=2"`
}

// Victim describes one person affected by a violation.
type Victim struct {
	Name   string `json:"name,omitempty"`
	Age    *int   `json:"age,omitempty" validate:"omitempty,gte=0,lte=130"`
	Gender string `json:"gender,omitempty" validate:"omitempty,oneof=male female unknown"`
}

// Violation is a single documented incident. Until the persistence stage
// succeeds it is only an in-memory candidate extracted from a report; after
// creation it is a permanent row in the violations table.
type Violation struct {
	ID                     uuid.UUID     `json:"id,omitempty"`
	Type                   string        `json:"type" validate:"required,oneof=airstrike shelling killing detention torture kidnapping forced_displacement property_destruction landmine siege other"`
	Date                   string        `json:"date" validate:"required,datetime=2006-01-02"`
	Description            LocalizedText `json:"description"`
	Location               Location      `json:"location"`
	Source                 LocalizedText `json:"source"`
	SourceURL              LocalizedText `json:"source_url"`
	Verified               bool          `json:"verified"`
	CertaintyLevel         string        `json:"certainty_level" validate:"required,oneof=confirmed probable possible"`
	Casualties             int           `json:"casualties" validate:"gte=0"`
	Victims                []Victim      `json:"victims,omitempty" validate:"omitempty,dive"`
	MediaLinks             []string      `json:"media_links,omitempty" validate:"omitempty,dive,url"`
	Tags                   []string      `json:"tags,omitempty"`
	Perpetrator            string        `json:"perpetrator,omitempty"`
	PerpetratorAffiliation string        `json:"perpetrator_affiliation,omitempty"`
	CreatedBy              string        `json:"created_by,omitempty"`
	UpdatedBy              string        `json:"updated_by,omitempty"`
	CreatedAt              time.Time     `json:"created_at,omitempty"`
	UpdatedAt              time.Time     `json:"updated_at,omitempty"`
}

// NewValidator returns the validator used both by the candidate validation
// stage and by the violation store before inserts. The struct-level rule
// covers the one constraint field tags cannot express: a violation needs a
// description in at least one language.
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterStructValidation(violationStructLevel, Violation{})
	return validate
}

func violationStructLevel(sl validator.StructLevel) {
	v := sl.Current().Interface().(Violation)
	if v.Description.Empty() {
		sl.ReportError(v.Description, "Description", "description", "required_localized", "")
	}
}
