// Package testutil provides shared fixtures for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/worklens/internal/schema"
	"github.com/roach88/worklens/internal/store"
)

// Project ids of the tracker dataset.
const (
	ProjectAlpha int64 = 10
	ProjectBeta  int64 = 20
	ProjectGamma int64 = 30
)

// Issue ids of the tracker dataset.
const (
	IssueAlphaEpic    int64 = 1001 // ALPHA-1, epic "Login Revamp"
	IssueAlphaLogin   int64 = 1002 // ALPHA-2, components UI+API, fix 1.0 (released)
	IssueAlphaSession int64 = 1003 // ALPHA-3, fix 2.0 (unreleased), affects 1.0, unassigned
	IssueAlphaDocs    int64 = 1004 // ALPHA-4, no worklogs
	IssueBetaSetup    int64 = 2001 // BETA-1, component Backend, fix b1 (released)
	IssueBetaMetrics  int64 = 2002 // BETA-2, no links
	IssueGammaTask    int64 = 3001 // GAMMA-1
)

// Component ids of the tracker dataset.
const (
	ComponentUI      int64 = 100
	ComponentAPI     int64 = 101
	ComponentBackend int64 = 102
)

// Version ids of the tracker dataset.
const (
	VersionAlpha1 int64 = 200 // "1.0", released
	VersionAlpha2 int64 = 201 // "2.0", unreleased
	VersionBeta1  int64 = 202 // "b1", released
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func est(n int64) *int64 {
	return &n
}

// TrackerDataset returns a small three-project tracker.
//
// Alice (JIRAUSER1) exists in two directories; the lower-positioned one
// names her "Alice Archer". Carol has no directory entry, so her display
// name falls back to her key.
//
// Worklog seconds by issue: ALPHA-1 900, ALPHA-2 3600+1800, ALPHA-3 7200,
// BETA-1 5400+2700, BETA-2 600, GAMMA-1 1200.
func TrackerDataset() store.Dataset {
	return store.Dataset{
		Directories: []store.Directory{
			{ID: 1, Name: "Internal", Position: 0},
			{ID: 2, Name: "LDAP", Position: 1},
		},
		Projects: []store.Project{
			{ID: ProjectAlpha, Key: "ALPHA", Name: "Alpha"},
			{ID: ProjectBeta, Key: "BETA", Name: "Beta"},
			{ID: ProjectGamma, Key: "GAMMA", Name: "Gamma"},
		},
		IssueTypes: []store.Constant{
			{ID: "1", Name: "Bug", Sequence: 1},
			{ID: "2", Name: "Story", Sequence: 2},
			{ID: "3", Name: "Epic", Sequence: 3},
		},
		Statuses: []store.Constant{
			{ID: "1", Name: "Open", Sequence: 1},
			{ID: "3", Name: "In Progress", Sequence: 2},
			{ID: "6", Name: "Closed", Sequence: 3},
		},
		Priorities: []store.Constant{
			{ID: "2", Name: "High", Sequence: 1},
			{ID: "3", Name: "Medium", Sequence: 2},
		},
		Resolutions: []store.Constant{
			{ID: "1", Name: "Fixed", Sequence: 1},
			{ID: "2", Name: "Won't Fix", Sequence: 2},
		},
		Users: []store.User{
			{ID: 1, Key: "JIRAUSER1", Login: "alice", DisplayName: "Alice Archer", Directory: 1},
			{ID: 2, Key: "JIRAUSER2", Login: "Bob", DisplayName: "Bob Baker", Directory: 2},
			{ID: 3, Key: "carol", Login: "carol"},
		},
		Accounts: []store.Account{
			{ID: 10, Directory: 2, Login: "alice", DisplayName: "Alice (LDAP)"},
		},
		Components: []store.Component{
			{ID: ComponentUI, Project: ProjectAlpha, Name: "UI"},
			{ID: ComponentAPI, Project: ProjectAlpha, Name: "API"},
			{ID: ComponentBackend, Project: ProjectBeta, Name: "Backend"},
		},
		Versions: []store.Version{
			{ID: VersionAlpha1, Project: ProjectAlpha, Name: "1.0", Released: true, Sequence: 1},
			{ID: VersionAlpha2, Project: ProjectAlpha, Name: "2.0", Sequence: 2},
			{ID: VersionBeta1, Project: ProjectBeta, Name: "b1", Released: true, Sequence: 1},
		},
		Issues: []store.Issue{
			{
				ID: IssueAlphaEpic, Project: ProjectAlpha, Number: 1, Summary: "Login revamp",
				Type: "3", Status: "3", Priority: "2",
				Assignee: "JIRAUSER1", Reporter: "JIRAUSER2",
				Created:          at("2024-01-05T08:00:00Z"),
				OriginalEstimate: est(36000), RemainingEstimate: est(18000),
				EpicName: "Login Revamp",
			},
			{
				ID: IssueAlphaLogin, Project: ProjectAlpha, Number: 2, Summary: "Login form",
				Type: "2", Status: "6", Priority: "2", Resolution: "1",
				Assignee: "JIRAUSER1", Reporter: "JIRAUSER1",
				Created:          at("2024-01-10T08:00:00Z"),
				OriginalEstimate: est(7200), RemainingEstimate: est(0),
				Components:       []int64{ComponentUI, ComponentAPI},
				FixVersions:      []int64{VersionAlpha1},
				Labels:           []string{"frontend", "urgent"},
				Epic:             IssueAlphaEpic,
			},
			{
				ID: IssueAlphaSession, Project: ProjectAlpha, Number: 3, Summary: "Session timeout",
				Type: "1", Status: "1", Priority: "3",
				Reporter:         "JIRAUSER2",
				Created:          at("2024-02-01T08:00:00Z"),
				OriginalEstimate: est(3600), RemainingEstimate: est(3600),
				FixVersions:      []int64{VersionAlpha2},
				AffectedVersions: []int64{VersionAlpha1},
				Labels:           []string{"backend"},
				Epic:             IssueAlphaEpic,
			},
			{
				ID: IssueAlphaDocs, Project: ProjectAlpha, Number: 4, Summary: "Docs",
				Type: "2", Status: "1", Priority: "3",
				Assignee: "JIRAUSER2", Reporter: "JIRAUSER1",
				Created: at("2024-02-15T08:00:00Z"),
			},
			{
				ID: IssueBetaSetup, Project: ProjectBeta, Number: 1, Summary: "Backend setup",
				Type: "2", Status: "3", Priority: "3",
				Assignee: "JIRAUSER2", Reporter: "JIRAUSER2",
				Created:          at("2024-01-20T08:00:00Z"),
				OriginalEstimate: est(14400), RemainingEstimate: est(7200),
				Components:       []int64{ComponentBackend},
				FixVersions:      []int64{VersionBeta1},
				Labels:           []string{"backend"},
			},
			{
				ID: IssueBetaMetrics, Project: ProjectBeta, Number: 2, Summary: "Metrics",
				Type: "1", Status: "6", Priority: "2", Resolution: "2",
				Assignee: "carol", Reporter: "carol",
				Created: at("2024-03-01T08:00:00Z"),
			},
			{
				ID: IssueGammaTask, Project: ProjectGamma, Number: 1, Summary: "Gamma task",
				Type: "2", Status: "1", Priority: "3",
				Created: at("2024-01-01T08:00:00Z"),
			},
		},
		Worklogs: []store.Worklog{
			{ID: 5001, Issue: IssueAlphaLogin, Author: "JIRAUSER1", Body: "Form layout", Start: at("2024-01-11T09:00:00Z"), Seconds: 3600},
			{ID: 5002, Issue: IssueAlphaLogin, Author: "JIRAUSER2", Body: "Review", Start: at("2024-01-12T10:00:00Z"), Seconds: 1800},
			{ID: 5003, Issue: IssueAlphaSession, Author: "JIRAUSER1", Start: at("2024-02-02T09:00:00Z"), Seconds: 7200},
			{ID: 5004, Issue: IssueAlphaEpic, Author: "JIRAUSER1", Start: at("2024-01-06T09:00:00Z"), Seconds: 900},
			{ID: 5005, Issue: IssueBetaSetup, Author: "JIRAUSER2", Start: at("2024-01-21T09:00:00Z"), Seconds: 5400},
			{ID: 5006, Issue: IssueBetaSetup, Author: "carol", Start: at("2024-01-22T09:00:00Z"), Seconds: 2700},
			{ID: 5007, Issue: IssueBetaMetrics, Author: "carol", Start: at("2024-03-02T09:00:00Z"), Seconds: 600},
			{ID: 5008, Issue: IssueGammaTask, Author: "JIRAUSER1", Start: at("2024-01-02T09:00:00Z"), Seconds: 1200},
		},
	}
}

// OpenStore opens an empty SQLite store under t.TempDir().
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "worklens.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// SeededStore opens a SQLite store holding ds.
func SeededStore(t testing.TB, ds store.Dataset) *store.Store {
	t.Helper()
	s := OpenStore(t)
	if err := s.Seed(context.Background(), ds, schema.DefaultConventions()); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return s
}

// TrackerStore opens a SQLite store holding TrackerDataset.
func TrackerStore(t testing.TB) *store.Store {
	t.Helper()
	return SeededStore(t, TrackerDataset())
}
