// Package filter defines the filter specification that drives every report.
//
// A Spec is decoded once at the edge (YAML, JSON or CUE files, HTTP bodies),
// validated with Validate, and then handed by value to the report builders.
// Per-dimension sentinel choices ("no component", "unreleased fix version",
// "unassigned") are explicit Selection values rather than magic strings mixed
// into the value lists.
package filter
