package filter

import (
	"errors"
	"fmt"
)

// InvalidFilterError reports a filter that cannot be turned into a query.
//
// It is raised before any query is built:
//   - No project scope: ProjectIDs is empty
//   - Unsupported sentinel: a dimension was given a sentinel it does not offer
//   - Malformed value: issue key, date range, paging or order column
type InvalidFilterError struct {
	// Code identifies the error category.
	Code InvalidFilterCode

	// Field names the offending Spec field (e.g. "components").
	Field string

	// Message is a human-readable description.
	Message string
}

// InvalidFilterCode categorizes invalid filters.
type InvalidFilterCode string

const (
	// ErrCodeNoProjectScope indicates an empty project set.
	ErrCodeNoProjectScope InvalidFilterCode = "NO_PROJECT_SCOPE"

	// ErrCodeUnknownSentinel indicates a sentinel the dimension does not offer,
	// or a sentinel name that does not exist.
	ErrCodeUnknownSentinel InvalidFilterCode = "UNKNOWN_SENTINEL"

	// ErrCodeMalformedValue indicates a value that cannot be interpreted.
	ErrCodeMalformedValue InvalidFilterCode = "MALFORMED_VALUE"
)

// Error implements the error interface.
func (e *InvalidFilterError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidFilter returns true if the error is an InvalidFilterError.
// Uses errors.As to handle wrapped errors.
func IsInvalidFilter(err error) bool {
	var fe *InvalidFilterError
	return errors.As(err, &fe)
}

// NewNoProjectScopeError creates the error for an empty project set.
func NewNoProjectScopeError() *InvalidFilterError {
	return &InvalidFilterError{
		Code:    ErrCodeNoProjectScope,
		Field:   "project_ids",
		Message: "at least one project must be selected",
	}
}

// NewUnknownSentinelError creates the error for an unsupported sentinel.
func NewUnknownSentinelError(field string, s Sentinel) *InvalidFilterError {
	return &InvalidFilterError{
		Code:    ErrCodeUnknownSentinel,
		Field:   field,
		Message: fmt.Sprintf("sentinel %s is not offered by this dimension", s),
	}
}

// NewMalformedError creates the error for an uninterpretable value.
func NewMalformedError(field, format string, args ...any) *InvalidFilterError {
	return &InvalidFilterError{
		Code:    ErrCodeMalformedValue,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}
