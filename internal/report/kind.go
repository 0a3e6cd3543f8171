package report

import (
	"fmt"
	"strings"
)

// Kind selects the primary entity of a report.
type Kind int

const (
	// KindWorklogs lists worklogs; the primary key is the worklog id.
	KindWorklogs Kind = iota
	// KindIssues lists issues with worklogs; the primary key is the issue id.
	KindIssues
	// KindProjects lists projects with worklogs; the primary key is the project id.
	KindProjects
	// KindUsers lists worklog authors; the primary key is the author's user key.
	KindUsers
)

var kindNames = []string{"worklogs", "issues", "projects", "users"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind decodes a report kind name.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(name, n) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown report kind %q", name)
}

// Breakdown selects how aggregate sums are grouped.
type Breakdown int

const (
	// BreakdownNone sums everything into one total.
	BreakdownNone Breakdown = iota
	// BreakdownProject groups by project.
	BreakdownProject
	// BreakdownIssue groups by issue.
	BreakdownIssue
	// BreakdownUser groups by worklog author.
	BreakdownUser
)

var breakdownNames = []string{"none", "project", "issue", "user"}

func (b Breakdown) String() string {
	if b >= 0 && int(b) < len(breakdownNames) {
		return breakdownNames[b]
	}
	return fmt.Sprintf("Breakdown(%d)", int(b))
}

// ParseBreakdown decodes a breakdown name. The empty name is BreakdownNone.
func ParseBreakdown(name string) (Breakdown, error) {
	if name == "" {
		return BreakdownNone, nil
	}
	for i, n := range breakdownNames {
		if strings.EqualFold(name, n) {
			return Breakdown(i), nil
		}
	}
	return 0, fmt.Errorf("unknown breakdown %q", name)
}

// LinkKind names a many-valued issue attribute resolved by side queries.
type LinkKind int

const (
	LinkComponents LinkKind = iota
	LinkAffectedVersions
	LinkFixVersions
)

var linkKindNames = []string{"components", "affected_versions", "fix_versions"}

// LinkKinds lists every link kind in resolution order.
func LinkKinds() []LinkKind {
	return []LinkKind{LinkComponents, LinkAffectedVersions, LinkFixVersions}
}

func (k LinkKind) String() string {
	if k >= 0 && int(k) < len(linkKindNames) {
		return linkKindNames[k]
	}
	return fmt.Sprintf("LinkKind(%d)", int(k))
}

// ParseLinkKind decodes a link kind name.
func ParseLinkKind(name string) (LinkKind, error) {
	for i, n := range linkKindNames {
		if strings.EqualFold(name, n) {
			return LinkKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown link kind %q", name)
}

func (k LinkKind) dim() (linkDim, error) {
	switch k {
	case LinkComponents:
		return componentDim, nil
	case LinkAffectedVersions:
		return affectsVersionDim, nil
	case LinkFixVersions:
		return fixVersionDim, nil
	default:
		return linkDim{}, fmt.Errorf("unknown link kind %d", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// MarshalText encodes the breakdown by name.
func (b Breakdown) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// MarshalText encodes the link kind by name.
func (k LinkKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes the kind by name.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// UnmarshalText decodes the breakdown by name.
func (b *Breakdown) UnmarshalText(text []byte) error {
	v, err := ParseBreakdown(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// UnmarshalText decodes the link kind by name, so Links decodes from JSON.
func (k *LinkKind) UnmarshalText(b []byte) error {
	v, err := ParseLinkKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
