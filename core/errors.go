package core

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// IsValidationError reports whether err is a *ValidationError or raw
// validator.ValidationErrors from Validate.Struct.
func IsValidationError(err error) bool {
	switch errors.Cause(err).(type) {
	case *ValidationError, validator.ValidationErrors:
		return true
	}
	return false
}

// AuthorizationError indicates a role or assignment mismatch: the caller is
// authenticated but may not perform the operation on the target.
type AuthorizationError struct {
	message string
}

func NewAuthorizationError(msg string) error {
	return &AuthorizationError{message: msg}
}

func (err AuthorizationError) Error() string {
	return err.message
}

func IsAuthorizationError(err error) bool {
	_, ok := errors.Cause(err).(*AuthorizationError)
	return ok
}

// InvalidStateError indicates an attempted transition that is not legal from
// the entity's current status.
type InvalidStateError struct {
	message string
}

func NewInvalidStateError(msg string) error {
	return &InvalidStateError{message: msg}
}

func (err InvalidStateError) Error() string {
	return err.message
}

func IsInvalidStateError(err error) bool {
	_, ok := errors.Cause(err).(*InvalidStateError)
	return ok
}

// ConcurrentModificationError indicates that an optimistic-concurrency guard
// tripped: the entity changed between read and write. Clients should refresh
// and retry.
type ConcurrentModificationError struct {
	message string
}

func NewConcurrentModificationError(msg string) error {
	return &ConcurrentModificationError{message: msg}
}

func (err ConcurrentModificationError) Error() string {
	return err.message
}

func IsConcurrentModificationError(err error) bool {
	_, ok := errors.Cause(err).(*ConcurrentModificationError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
