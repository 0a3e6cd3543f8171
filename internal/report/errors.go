package report

import (
	"errors"
	"fmt"
)

// QueryExecutionError wraps a failure reported by the query collaborator:
// connectivity, cancellation, timeouts or a generated query the database
// rejected. The core never retries.
//
// Cancellation stays visible through Unwrap, so
// errors.Is(err, context.Canceled) holds for a cancelled request.
type QueryExecutionError struct {
	// Op names the failing operation (e.g. "list worklogs", "links components").
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query execution failed (%s): %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// IsQueryExecution returns true if the error is a query execution error.
// Uses errors.As to handle wrapped errors.
func IsQueryExecution(err error) bool {
	var qe *QueryExecutionError
	return errors.As(err, &qe)
}

// InconsistentResultError reports a count that disagrees with the number of
// distinct primary keys a list returned for the same filter.
//
// It is raised by CheckAgreement and the scenario harness, never on the
// report path itself.
type InconsistentResultError struct {
	Kind     Kind
	Count    int64
	Distinct int64
}

// Error implements the error interface.
func (e *InconsistentResultError) Error() string {
	return fmt.Sprintf("inconsistent %s result: count query returned %d, list returned %d distinct rows",
		e.Kind, e.Count, e.Distinct)
}

// IsInconsistentResult returns true if the error is an InconsistentResultError.
// Uses errors.As to handle wrapped errors.
func IsInconsistentResult(err error) bool {
	var ie *InconsistentResultError
	return errors.As(err, &ie)
}

// CheckAgreement compares a count with the primary keys of an unbounded list.
func CheckAgreement[K comparable](kind Kind, count int64, keys []K) error {
	distinct := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		distinct[k] = struct{}{}
	}
	if int64(len(distinct)) != count {
		return &InconsistentResultError{Kind: kind, Count: count, Distinct: int64(len(distinct))}
	}
	return nil
}
