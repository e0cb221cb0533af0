package core_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ukaguzi/core"
)

func TestIsValidationError(t *testing.T) {
	var data struct {
		Name string `validate:"required"`
	}
	vErr := core.Validate.Struct(data)
	require.Error(t, vErr)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil"},
		{name: "plain error", err: errors.New("oops")},
		{name: "ValidationError", err: core.NewValidationError(errors.New("oops")), want: true},
		{name: "ValidationError with fields", err: core.NewValidationError(nil, core.FieldError{Field: "name", Error: "oops"}), want: true},
		{name: "wrapped ValidationError", err: errors.Wrap(core.NewValidationError(errors.New("oops")), "creating"), want: true},
		{name: "validator errors", err: vErr, want: true},
		{name: "wrapped validator errors", err: errors.Wrap(vErr, "validating"), want: true},
		{name: "authorization error", err: core.NewAuthorizationError("nope")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.IsValidationError(tt.err))
		})
	}
}
