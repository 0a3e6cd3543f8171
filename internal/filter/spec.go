package filter

import (
	"fmt"
	"strings"
	"time"
)

// Spec is the immutable description of which worklogs a report covers.
//
// Every set is optional except ProjectIDs. An empty set means "no constraint
// on this dimension". Within a Selection the accepted values and the enabled
// sentinels are alternatives; across dimensions every active constraint must hold.
//
// Spec is a value type. Builders never mutate it.
type Spec struct {
	ProjectIDs   []int64
	IssueIDs     []int64
	IssueKeys    []string
	IssueTypeIDs []string
	StatusIDs    []string
	PriorityIDs  []string

	Resolutions Selection // Missing = unresolved
	Assignees   Selection // user keys; Missing = unassigned

	ReporterKeys   []string
	WorklogAuthors []string // login names

	Components       Selection // names; Missing = no component
	AffectedVersions Selection // names; Missing = no affected version
	FixVersions      Selection // names; Missing, Released, Unreleased

	Labels           []string
	EpicLinkIssueIDs []int64
	EpicName         string // case-insensitive prefix

	IssueCreated DateRange
	Worklog      DateRange // bounds on the worklog start date

	Page  Page
	Order Order
}

// Sentinel is a bit set of the special, non-value choices a dimension can offer.
type Sentinel uint8

const (
	// Missing selects rows with no value on the dimension.
	Missing Sentinel = 1 << iota
	// Released selects issues with at least one released fix version.
	Released
	// Unreleased selects issues with at least one unreleased fix version.
	Unreleased
)

var sentinelNames = []struct {
	bit  Sentinel
	name string
}{
	{Missing, "missing"},
	{Released, "released"},
	{Unreleased, "unreleased"},
}

// Has reports whether every bit of other is set in s.
func (s Sentinel) Has(other Sentinel) bool {
	return other != 0 && s&other == other
}

// Names returns the file names of the set bits in declaration order.
func (s Sentinel) Names() []string {
	names := []string{}
	for _, sn := range sentinelNames {
		if s&sn.bit != 0 {
			names = append(names, sn.name)
		}
	}
	return names
}

func (s Sentinel) String() string {
	if s == 0 {
		return "none"
	}
	return strings.Join(s.Names(), "|")
}

// MarshalText encodes the sentinel by its file names.
func (s Sentinel) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSentinel decodes a sentinel name as written in filter files.
func ParseSentinel(name string) (Sentinel, error) {
	for _, sn := range sentinelNames {
		if strings.EqualFold(name, sn.name) {
			return sn.bit, nil
		}
	}
	return 0, fmt.Errorf("unknown sentinel %q", name)
}

// Mode is the decoded shape of a Selection.
type Mode int

const (
	// ModeAny places no constraint on the dimension.
	ModeAny Mode = iota
	// ModeMembers accepts rows whose value is in the set.
	ModeMembers
	// ModeSentinel accepts rows matching an enabled sentinel only.
	ModeSentinel
	// ModeMembersOrSentinel accepts either.
	ModeMembersOrSentinel
)

func (m Mode) String() string {
	switch m {
	case ModeAny:
		return "any"
	case ModeMembers:
		return "members"
	case ModeSentinel:
		return "sentinel"
	case ModeMembersOrSentinel:
		return "members_or_sentinel"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Selection is the per-dimension choice of accepted values and sentinels.
type Selection struct {
	Values    []string
	Sentinels Sentinel
}

// Mode decodes the selection into its tagged shape.
func (s Selection) Mode() Mode {
	switch {
	case len(s.Values) == 0 && s.Sentinels == 0:
		return ModeAny
	case s.Sentinels == 0:
		return ModeMembers
	case len(s.Values) == 0:
		return ModeSentinel
	default:
		return ModeMembersOrSentinel
	}
}

// Members is shorthand for a membership-only selection.
func Members(values ...string) Selection {
	return Selection{Values: values}
}

// Only is shorthand for a sentinel-only selection.
func Only(s Sentinel) Selection {
	return Selection{Sentinels: s}
}

// DateRange bounds an instant. From is inclusive, To is exclusive.
// A zero bound is absent.
type DateRange struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Page selects a window of the ordered result. Limit 0 returns every row.
type Page struct {
	Offset int64
	Limit  int64
}

// Bounded reports whether a limit applies.
func (p Page) Bounded() bool {
	return p.Limit > 0
}

// Order picks the leading sort column of detail reports.
// The zero Order sorts by issue key.
type Order struct {
	Column Column
	Desc   bool
}

// Column names an orderable worklog detail column.
type Column string

const (
	ColumnIssueKey       Column = "issue_key"
	ColumnProject        Column = "project"
	ColumnSummary        Column = "summary"
	ColumnType           Column = "type"
	ColumnStatus         Column = "status"
	ColumnPriority       Column = "priority"
	ColumnResolution     Column = "resolution"
	ColumnAssignee       Column = "assignee"
	ColumnReporter       Column = "reporter"
	ColumnCreated        Column = "created"
	ColumnUpdated        Column = "updated"
	ColumnEstimated      Column = "estimated"
	ColumnRemaining      Column = "remaining"
	ColumnStartTime      Column = "start_time"
	ColumnTimeSpent      Column = "time_spent"
	ColumnUser           Column = "user"
	ColumnWorklogCreated Column = "worklog_created"
	ColumnWorklogUpdated Column = "worklog_updated"
)

// Columns lists every orderable column.
func Columns() []Column {
	return []Column{
		ColumnIssueKey, ColumnProject, ColumnSummary, ColumnType, ColumnStatus,
		ColumnPriority, ColumnResolution, ColumnAssignee, ColumnReporter,
		ColumnCreated, ColumnUpdated, ColumnEstimated, ColumnRemaining,
		ColumnStartTime, ColumnTimeSpent, ColumnUser, ColumnWorklogCreated,
		ColumnWorklogUpdated,
	}
}

// ParseColumn validates a column name. The empty name is the default order.
func ParseColumn(name string) (Column, error) {
	if name == "" {
		return "", nil
	}
	for _, c := range Columns() {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown order column %q", name)
}
