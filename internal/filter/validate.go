package filter

import (
	"strconv"
	"strings"
)

// Offered sentinels per Selection dimension, keyed by file field name.
var offeredSentinels = []struct {
	field   string
	get     func(Spec) Selection
	offered Sentinel
}{
	{"resolutions", func(s Spec) Selection { return s.Resolutions }, Missing},
	{"assignees", func(s Spec) Selection { return s.Assignees }, Missing},
	{"components", func(s Spec) Selection { return s.Components }, Missing},
	{"affected_versions", func(s Spec) Selection { return s.AffectedVersions }, Missing},
	{"fix_versions", func(s Spec) Selection { return s.FixVersions }, Missing | Released | Unreleased},
}

// Validate checks a Spec before any query is built.
// Returns the first *InvalidFilterError found, or nil.
//
// Validate is a pure function with no side effects.
func Validate(spec Spec) error {
	if len(spec.ProjectIDs) == 0 {
		return NewNoProjectScopeError()
	}

	for _, d := range offeredSentinels {
		if extra := d.get(spec).Sentinels &^ d.offered; extra != 0 {
			return NewUnknownSentinelError(d.field, extra)
		}
	}

	for _, key := range spec.IssueKeys {
		if _, _, err := ParseIssueKey(key); err != nil {
			return err
		}
	}

	if err := validateRange("issue_created", spec.IssueCreated); err != nil {
		return err
	}
	if err := validateRange("worklog", spec.Worklog); err != nil {
		return err
	}

	if spec.Page.Offset < 0 {
		return NewMalformedError("offset", "offset must not be negative, got %d", spec.Page.Offset)
	}
	if spec.Page.Limit < 0 {
		return NewMalformedError("limit", "limit must not be negative, got %d", spec.Page.Limit)
	}

	if _, err := ParseColumn(string(spec.Order.Column)); err != nil {
		return NewMalformedError("order", "%v", err)
	}

	return nil
}

func validateRange(field string, r DateRange) error {
	if r.From.IsZero() || r.To.IsZero() {
		return nil
	}
	if !r.From.Before(r.To) {
		return NewMalformedError(field, "range start %s is not before end %s",
			r.From.Format("2006-01-02T15:04:05Z07:00"), r.To.Format("2006-01-02T15:04:05Z07:00"))
	}
	return nil
}

// ParseIssueKey splits "PKEY-123" into its project key and issue number.
// The split happens at the last hyphen so project keys may contain hyphens.
func ParseIssueKey(key string) (string, int64, error) {
	idx := strings.LastIndexByte(key, '-')
	if idx <= 0 || idx == len(key)-1 {
		return "", 0, NewMalformedError("issue_keys", "issue key %q is not of the form PKEY-NUMBER", key)
	}

	num, err := strconv.ParseInt(key[idx+1:], 10, 64)
	if err != nil || num <= 0 {
		return "", 0, NewMalformedError("issue_keys", "issue key %q has no valid issue number", key)
	}

	return key[:idx], num, nil
}
