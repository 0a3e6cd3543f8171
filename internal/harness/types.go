package harness

import (
	"github.com/roach88/worklens/internal/report"
)

// Response is what one scenario request produced.
type Response struct {
	// Request is the request's name in the scenario.
	Request string `json:"request"`

	// Op is the engine operation, e.g. "report worklogs" or "aggregate user".
	Op string `json:"op"`

	// RequestID is the id the engine stamped on the request.
	RequestID string `json:"request_id,omitempty"`

	// Fingerprint identifies the filter's population.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Error is the invalid-filter code if the filter was rejected.
	Error string `json:"error,omitempty"`

	// Keys are the primary keys of the returned rows, in order:
	// worklog ids, issue keys, project keys or user keys.
	// For aggregates these are the breakdown group keys.
	Keys []string `json:"keys"`

	// Count is the size of the unbounded list. Aggregates report the number
	// of groups.
	Count int64 `json:"count"`

	// Total is the grand total.
	Total report.Totals `json:"total"`

	// Groups holds breakdown or summary groups.
	Groups []report.GroupTotals `json:"groups,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Responses holds one entry per request, in scenario order.
	Responses []Response `json:"responses"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Responses: []Response{},
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Response returns the response of the named request.
func (r *Result) Response(name string) (Response, bool) {
	for _, resp := range r.Responses {
		if resp.Request == name {
			return resp, true
		}
	}
	return Response{}, false
}
