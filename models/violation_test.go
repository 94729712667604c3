package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validViolation() Violation {
	return Violation{
		Type:           "shelling",
		Date:           "2024-03-14",
		Description:    LocalizedText{Ar: "قصف على الحي الشرقي"},
		CertaintyLevel: "probable",
		Location: Location{
			Name: LocalizedText{En: "Eastern District"},
		},
	}
}

func TestValidatorAcceptsCompleteViolation(t *testing.T) {
	validate := NewValidator()
	assert.NoError(t, validate.Struct(validViolation()))
}

func TestValidatorRejectsMissingRequiredFields(t *testing.T) {
	validate := NewValidator()

	v := validViolation()
	v.Type = ""
	assert.Error(t, validate.Struct(v), "type is required")

	v = validViolation()
	v.Type = "parking_ticket"
	assert.Error(t, validate.Struct(v), "type must be a known enum value")

	v = validViolation()
	v.Date = "14/03/2024"
	assert.Error(t, validate.Struct(v), "date must be YYYY-MM-DD")

	v = validViolation()
	v.CertaintyLevel = "certain"
	assert.Error(t, validate.Struct(v), "certainty level enum")

	v = validViolation()
	v.Casualties = -1
	assert.Error(t, validate.Struct(v), "casualties cannot be negative")
}

func TestValidatorRequiresLocalizedDescription(t *testing.T) {
	validate := NewValidator()

	v := validViolation()
	v.Description = LocalizedText{}
	err := validate.Struct(v)
	require.Error(t, err)

	// Either language alone satisfies the rule.
	v.Description = LocalizedText{En: "shelling of the eastern district"}
	assert.NoError(t, validate.Struct(v))
}

// A candidate without a location name still passes structural validation.
// Rejecting it is the location resolution stage's job, so the failure is
// reported per-candidate with the resolution message.
func TestValidatorAllowsMissingLocationName(t *testing.T) {
	validate := NewValidator()

	v := validViolation()
	v.Location = Location{}
	assert.NoError(t, validate.Struct(v))
}

func TestValidatorChecksNestedCollections(t *testing.T) {
	validate := NewValidator()

	v := validViolation()
	v.MediaLinks = []string{"https://example.org/photo.jpg"}
	require.NoError(t, validate.Struct(v))

	v.MediaLinks = []string{"not a url"}
	assert.Error(t, validate.Struct(v))

	age := -3
	v = validViolation()
	v.Victims = []Victim{{Name: "Unknown", Age: &age}}
	assert.Error(t, validate.Struct(v))
}

func TestLocalizedTextEmpty(t *testing.T) {
	assert.True(t, LocalizedText{}.Empty())
	assert.False(t, LocalizedText{Ar: "حلب"}.Empty())
	assert.False(t, LocalizedText{En: "Aleppo"}.Empty())
}
