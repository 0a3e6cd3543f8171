package store

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Dataset is a self-contained set of work-tracking records.
// It is how fixtures, scenarios and the seed command populate a database.
type Dataset struct {
	Directories []Directory `yaml:"directories,omitempty"`
	Projects    []Project   `yaml:"projects"`
	IssueTypes  []Constant  `yaml:"issue_types"`
	Statuses    []Constant  `yaml:"statuses"`
	Priorities  []Constant  `yaml:"priorities"`
	Resolutions []Constant  `yaml:"resolutions,omitempty"`
	Users       []User      `yaml:"users,omitempty"`
	// Accounts are additional directory entries for logins that already
	// appear in Users, e.g. the same person in a second directory.
	Accounts    []Account   `yaml:"accounts,omitempty"`
	Components  []Component `yaml:"components,omitempty"`
	Versions    []Version   `yaml:"versions,omitempty"`
	Issues      []Issue     `yaml:"issues"`
	Worklogs    []Worklog   `yaml:"worklogs,omitempty"`
}

// Directory is a user directory. Lower positions win when a login
// exists in more than one directory.
type Directory struct {
	ID       int64  `yaml:"id"`
	Name     string `yaml:"name"`
	Position int64  `yaml:"position"`
}

// Project is a project row.
type Project struct {
	ID          int64  `yaml:"id"`
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// Constant is an issue type, status, priority or resolution.
type Constant struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	IconURL  string `yaml:"icon_url,omitempty"`
	Sequence int64  `yaml:"sequence,omitempty"`
}

// User maps a stable user key to a login and a directory entry.
// Users without a DisplayName get no directory entry at all.
type User struct {
	ID          int64  `yaml:"id"`
	Key         string `yaml:"key"`
	Login       string `yaml:"login"`
	DisplayName string `yaml:"display_name,omitempty"`
	Directory   int64  `yaml:"directory,omitempty"`
	Inactive    bool   `yaml:"inactive,omitempty"`
}

// Account is a directory entry beyond the one a User creates.
type Account struct {
	ID          int64  `yaml:"id"`
	Directory   int64  `yaml:"directory"`
	Login       string `yaml:"login"`
	DisplayName string `yaml:"display_name"`
}

// Component belongs to one project.
type Component struct {
	ID      int64  `yaml:"id"`
	Project int64  `yaml:"project"`
	Name    string `yaml:"name"`
}

// Version belongs to one project. Released versions store "true";
// unreleased ones store NULL.
type Version struct {
	ID       int64  `yaml:"id"`
	Project  int64  `yaml:"project"`
	Name     string `yaml:"name"`
	Released bool   `yaml:"released,omitempty"`
	Sequence int64  `yaml:"sequence,omitempty"`
}

// Issue is an issue row plus its many-valued attributes.
// Component and version ids keep their list order as association sequence.
type Issue struct {
	ID                int64     `yaml:"id"`
	Project           int64     `yaml:"project"`
	Number            int64     `yaml:"number"`
	Summary           string    `yaml:"summary"`
	Type              string    `yaml:"type"`
	Status            string    `yaml:"status"`
	Priority          string    `yaml:"priority"`
	Resolution        string    `yaml:"resolution,omitempty"`
	Assignee          string    `yaml:"assignee,omitempty"`
	Reporter          string    `yaml:"reporter,omitempty"`
	Created           time.Time `yaml:"created"`
	Updated           time.Time `yaml:"updated,omitempty"`
	OriginalEstimate  *int64    `yaml:"original_estimate,omitempty"`
	RemainingEstimate *int64    `yaml:"remaining_estimate,omitempty"`
	Components        []int64   `yaml:"components,omitempty"`
	AffectedVersions  []int64   `yaml:"affected_versions,omitempty"`
	FixVersions       []int64   `yaml:"fix_versions,omitempty"`
	Labels            []string  `yaml:"labels,omitempty"`
	// Epic is the id of the epic issue this issue belongs to.
	Epic              int64     `yaml:"epic,omitempty"`
	// EpicName is set on epics themselves.
	EpicName          string    `yaml:"epic_name,omitempty"`
}

// Worklog is one logged time entry.
type Worklog struct {
	ID      int64     `yaml:"id"`
	Issue   int64     `yaml:"issue"`
	Author  string    `yaml:"author"`
	Body    string    `yaml:"body,omitempty"`
	Start   time.Time `yaml:"start"`
	Created time.Time `yaml:"created,omitempty"`
	Updated time.Time `yaml:"updated,omitempty"`
	Seconds int64     `yaml:"seconds"`
}

// DecodeDataset parses a YAML dataset. Unknown keys are rejected.
func DecodeDataset(data []byte) (Dataset, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		return Dataset{}, fmt.Errorf("parse dataset: %w", err)
	}
	return ds, nil
}

// LoadDataset reads a YAML dataset file.
func LoadDataset(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	return DecodeDataset(data)
}
