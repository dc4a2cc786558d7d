package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or missing input with field-level
// detail. Never retried, always surfaced to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports a referenced id that does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// InvalidTransitionError reports a status change the post state machine
// does not permit.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

func InvalidTransition(from, to string) error {
	return &InvalidTransitionError{From: from, To: to}
}

// ConsistencyError marks an internal invariant breach (e.g. a partially
// committed fan-out). It must never reach a caller as-is: handlers map it
// to a generic internal failure and log the detail.
type ConsistencyError struct {
	Detail string
}

func (e *ConsistencyError) Error() string {
	return "internal consistency violation: " + e.Detail
}

func Consistency(format string, args ...interface{}) error {
	return &ConsistencyError{Detail: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsInvalidTransition(err error) bool {
	var it *InvalidTransitionError
	return errors.As(err, &it)
}
