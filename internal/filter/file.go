package filter

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed filter.cue
var filterSchema string

// File is the serialized form of a Spec, shared by YAML, JSON and CUE filter files
// and by the HTTP API request body.
type File struct {
	ProjectIDs       []int64        `yaml:"project_ids" json:"project_ids"`
	IssueIDs         []int64        `yaml:"issue_ids,omitempty" json:"issue_ids,omitempty"`
	IssueKeys        []string       `yaml:"issue_keys,omitempty" json:"issue_keys,omitempty"`
	IssueTypeIDs     []string       `yaml:"issue_type_ids,omitempty" json:"issue_type_ids,omitempty"`
	StatusIDs        []string       `yaml:"status_ids,omitempty" json:"status_ids,omitempty"`
	PriorityIDs      []string       `yaml:"priority_ids,omitempty" json:"priority_ids,omitempty"`
	Resolutions      *SelectionFile `yaml:"resolutions,omitempty" json:"resolutions,omitempty"`
	Assignees        *SelectionFile `yaml:"assignees,omitempty" json:"assignees,omitempty"`
	ReporterKeys     []string       `yaml:"reporter_keys,omitempty" json:"reporter_keys,omitempty"`
	WorklogAuthors   []string       `yaml:"worklog_authors,omitempty" json:"worklog_authors,omitempty"`
	Components       *SelectionFile `yaml:"components,omitempty" json:"components,omitempty"`
	AffectedVersions *SelectionFile `yaml:"affected_versions,omitempty" json:"affected_versions,omitempty"`
	FixVersions      *SelectionFile `yaml:"fix_versions,omitempty" json:"fix_versions,omitempty"`
	Labels           []string       `yaml:"labels,omitempty" json:"labels,omitempty"`
	EpicLinkIssueIDs []int64        `yaml:"epic_link_issue_ids,omitempty" json:"epic_link_issue_ids,omitempty"`
	EpicName         string         `yaml:"epic_name,omitempty" json:"epic_name,omitempty"`
	IssueCreated     *RangeFile     `yaml:"issue_created,omitempty" json:"issue_created,omitempty"`
	Worklog          *RangeFile     `yaml:"worklog,omitempty" json:"worklog,omitempty"`
	Offset           int64          `yaml:"offset,omitempty" json:"offset,omitempty"`
	Limit            int64          `yaml:"limit,omitempty" json:"limit,omitempty"`
	OrderBy          string         `yaml:"order_by,omitempty" json:"order_by,omitempty"`
	OrderDesc        bool           `yaml:"order_desc,omitempty" json:"order_desc,omitempty"`
}

// SelectionFile is the serialized form of a Selection.
type SelectionFile struct {
	Values    []string `yaml:"values,omitempty" json:"values,omitempty"`
	Sentinels []string `yaml:"sentinels,omitempty" json:"sentinels,omitempty"`
}

// RangeFile is the serialized form of a DateRange.
// Bounds are RFC 3339 instants or plain dates (midnight UTC).
type RangeFile struct {
	From string `yaml:"from,omitempty" json:"from,omitempty"`
	To   string `yaml:"to,omitempty" json:"to,omitempty"`
}

// Spec converts the file form into a validated Spec.
func (f File) Spec() (Spec, error) {
	spec := Spec{
		ProjectIDs:       f.ProjectIDs,
		IssueIDs:         f.IssueIDs,
		IssueKeys:        f.IssueKeys,
		IssueTypeIDs:     f.IssueTypeIDs,
		StatusIDs:        f.StatusIDs,
		PriorityIDs:      f.PriorityIDs,
		ReporterKeys:     f.ReporterKeys,
		WorklogAuthors:   f.WorklogAuthors,
		Labels:           f.Labels,
		EpicLinkIssueIDs: f.EpicLinkIssueIDs,
		EpicName:         f.EpicName,
		Page:             Page{Offset: f.Offset, Limit: f.Limit},
		Order:            Order{Column: Column(f.OrderBy), Desc: f.OrderDesc},
	}

	var err error
	selections := []struct {
		field string
		src   *SelectionFile
		dst   *Selection
	}{
		{"resolutions", f.Resolutions, &spec.Resolutions},
		{"assignees", f.Assignees, &spec.Assignees},
		{"components", f.Components, &spec.Components},
		{"affected_versions", f.AffectedVersions, &spec.AffectedVersions},
		{"fix_versions", f.FixVersions, &spec.FixVersions},
	}
	for _, s := range selections {
		if *s.dst, err = s.src.selection(s.field); err != nil {
			return Spec{}, err
		}
	}

	if spec.IssueCreated, err = f.IssueCreated.dateRange("issue_created"); err != nil {
		return Spec{}, err
	}
	if spec.Worklog, err = f.Worklog.dateRange("worklog"); err != nil {
		return Spec{}, err
	}

	if err := Validate(spec); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

func (s *SelectionFile) selection(field string) (Selection, error) {
	if s == nil {
		return Selection{}, nil
	}
	sel := Selection{Values: s.Values}
	for _, name := range s.Sentinels {
		bit, err := ParseSentinel(name)
		if err != nil {
			return Selection{}, &InvalidFilterError{Code: ErrCodeUnknownSentinel, Field: field, Message: err.Error()}
		}
		sel.Sentinels |= bit
	}
	return sel, nil
}

func (r *RangeFile) dateRange(field string) (DateRange, error) {
	if r == nil {
		return DateRange{}, nil
	}
	from, err := parseInstant(field, r.From)
	if err != nil {
		return DateRange{}, err
	}
	to, err := parseInstant(field, r.To)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{From: from, To: to}, nil
}

func parseInstant(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, NewMalformedError(field, "cannot parse %q as a date or RFC 3339 instant", s)
}

// FromSpec converts a Spec back to its file form.
func FromSpec(spec Spec) File {
	return File{
		ProjectIDs:       spec.ProjectIDs,
		IssueIDs:         spec.IssueIDs,
		IssueKeys:        spec.IssueKeys,
		IssueTypeIDs:     spec.IssueTypeIDs,
		StatusIDs:        spec.StatusIDs,
		PriorityIDs:      spec.PriorityIDs,
		Resolutions:      selectionFile(spec.Resolutions),
		Assignees:        selectionFile(spec.Assignees),
		ReporterKeys:     spec.ReporterKeys,
		WorklogAuthors:   spec.WorklogAuthors,
		Components:       selectionFile(spec.Components),
		AffectedVersions: selectionFile(spec.AffectedVersions),
		FixVersions:      selectionFile(spec.FixVersions),
		Labels:           spec.Labels,
		EpicLinkIssueIDs: spec.EpicLinkIssueIDs,
		EpicName:         spec.EpicName,
		IssueCreated:     rangeFile(spec.IssueCreated),
		Worklog:          rangeFile(spec.Worklog),
		Offset:           spec.Page.Offset,
		Limit:            spec.Page.Limit,
		OrderBy:          string(spec.Order.Column),
		OrderDesc:        spec.Order.Desc,
	}
}

func selectionFile(s Selection) *SelectionFile {
	if s.Mode() == ModeAny {
		return nil
	}
	sf := &SelectionFile{Values: s.Values}
	if s.Sentinels != 0 {
		sf.Sentinels = s.Sentinels.Names()
	}
	return sf
}

func rangeFile(r DateRange) *RangeFile {
	if r.IsZero() {
		return nil
	}
	rf := &RangeFile{}
	if !r.From.IsZero() {
		rf.From = r.From.UTC().Format(time.RFC3339)
	}
	if !r.To.IsZero() {
		rf.To = r.To.UTC().Format(time.RFC3339)
	}
	return rf
}

// DecodeYAML decodes and validates a YAML filter document.
// Unknown keys are rejected.
func DecodeYAML(data []byte) (Spec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return Spec{}, NewNoProjectScopeError()
		}
		return Spec{}, NewMalformedError("", "parse YAML filter: %v", err)
	}
	return f.Spec()
}

// DecodeJSON decodes and validates a JSON filter document.
// Unknown keys are rejected.
func DecodeJSON(data []byte) (Spec, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var f File
	if err := dec.Decode(&f); err != nil {
		return Spec{}, NewMalformedError("", "parse JSON filter: %v", err)
	}
	return f.Spec()
}

// DecodeCUE decodes a CUE filter document.
//
// The document may either be a bare filter struct or hold it under a top-level
// "filter" field. It is unified with the embedded #Filter definition, so unknown
// fields and mistyped values are reported with their CUE source position.
func DecodeCUE(filename string, data []byte) (Spec, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(filterSchema, cue.Filename("filter.cue"))
	if err := schema.Err(); err != nil {
		return Spec{}, fmt.Errorf("compile filter schema: %w", err)
	}

	doc := ctx.CompileBytes(data, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return Spec{}, cueFilterError(err)
	}

	body := doc
	if nested := doc.LookupPath(cue.ParsePath("filter")); nested.Exists() {
		body = nested
	}

	unified := schema.LookupPath(cue.ParsePath("#Filter")).Unify(body)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Spec{}, cueFilterError(err)
	}

	var f File
	if err := unified.Decode(&f); err != nil {
		return Spec{}, cueFilterError(err)
	}
	return f.Spec()
}

func cueFilterError(err error) *InvalidFilterError {
	return &InvalidFilterError{
		Code:    ErrCodeMalformedValue,
		Message: strings.TrimSpace(cueerrors.Details(err, nil)),
	}
}

// LoadFile reads a filter file, choosing the decoder by extension:
// .yaml/.yml, .json or .cue.
func LoadFile(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("read filter file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	case ".json":
		return DecodeJSON(data)
	case ".cue":
		return DecodeCUE(path, data)
	default:
		return Spec{}, fmt.Errorf("unsupported filter file extension %q", filepath.Ext(path))
	}
}
