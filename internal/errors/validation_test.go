package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorsError(t *testing.T) {
	empty := ValidationErrors{}
	assert.Equal(t, "validation failed", empty.Error())

	single := ValidationErrors{{Field: "pass_mark", Message: "must be between 0 and 100"}}
	assert.Equal(t, "validation failed: pass_mark must be between 0 and 100", single.Error())

	multiple := ValidationErrors{
		{Field: "title", Message: "is required"},
		{Field: "kind", Message: "must be a valid question kind (multiple_choice, true_false, fill_in, matching)"},
	}
	assert.Equal(t, "validation failed: 2 field errors", multiple.Error())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("title", "is required", "")
	assert.Equal(t, "title", err.Field)
	assert.Equal(t, "validation error on field 'title': is required", err.Error())

	withRule := NewValidationErrorWithRule("pass_mark", "must be between 0 and 100", "pass_mark", 120)
	assert.Equal(t, "pass_mark", withRule.Rule)
	assert.Equal(t, 120, withRule.Value)
}

func TestToValidationErrorsIgnoresForeignErrors(t *testing.T) {
	got := ToValidationErrors(assert.AnError)
	assert.Empty(t, got)
}
