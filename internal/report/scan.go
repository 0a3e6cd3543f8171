package report

import (
	"database/sql"
	"fmt"
	"time"
)

// timeLayouts are the text forms drivers hand back for timestamps.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.DateOnly,
}

// scanTime accepts a timestamp as time.Time or as text.
// SQLite only reports a time.Time when the column's declared type survives
// into the result, so computed and derived columns arrive as text.
type scanTime struct {
	t *time.Time
}

func (s scanTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s.t = time.Time{}
		return nil
	case time.Time:
		*s.t = v.UTC()
		return nil
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
}

func (s scanTime) parse(v string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			*s.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as time", v)
}

// nullInt keeps a nullable integer column.
type nullInt struct {
	p **int64
}

func (n nullInt) Scan(src any) error {
	var v sql.NullInt64
	if err := v.Scan(src); err != nil {
		return err
	}
	if !v.Valid {
		*n.p = nil
		return nil
	}
	x := v.Int64
	*n.p = &x
	return nil
}

// nullString reads NULL as "".
type nullString struct {
	p *string
}

func (n nullString) Scan(src any) error {
	var v sql.NullString
	if err := v.Scan(src); err != nil {
		return err
	}
	*n.p = v.String
	return nil
}

func scanWorklogRow(rows *sql.Rows) (WorklogRow, error) {
	var r WorklogRow
	err := rows.Scan(
		&r.WorklogID,
		&r.IssueID,
		&r.IssueKey,
		&r.ProjectID,
		&r.ProjectKey,
		&r.ProjectName,
		&r.Summary,
		&r.IssueType,
		&r.Status,
		&r.Priority,
		nullString{&r.Resolution},
		nullString{&r.Assignee},
		nullString{&r.Reporter},
		scanTime{&r.Created},
		scanTime{&r.Updated},
		nullInt{&r.OriginalEstimate},
		nullInt{&r.RemainingEstimate},
		&r.AuthorKey,
		nullString{&r.Author},
		nullString{&r.Body},
		scanTime{&r.Start},
		scanTime{&r.WorklogCreated},
		scanTime{&r.WorklogUpdated},
		&r.TimeWorked,
	)
	return r, err
}

func scanIssueRow(rows *sql.Rows) (IssueRow, error) {
	var r IssueRow
	err := rows.Scan(
		&r.IssueID,
		&r.IssueKey,
		&r.ProjectID,
		&r.ProjectKey,
		&r.Summary,
		&r.IssueType,
		&r.Status,
		&r.Priority,
		nullString{&r.Resolution},
		nullString{&r.Assignee},
		scanTime{&r.Created},
		nullInt{&r.OriginalEstimate},
		nullInt{&r.RemainingEstimate},
		&r.Worklogs,
		&r.TimeWorked,
	)
	return r, err
}

func scanGroupTotals(rows *sql.Rows) (GroupTotals, error) {
	var g GroupTotals
	err := rows.Scan(
		&g.Key,
		nullString{&g.Label},
		&g.TimeWorked,
		&g.OriginalEstimate,
		&g.RemainingEstimate,
	)
	return g, err
}

func scanTotals(rows *sql.Rows) (Totals, error) {
	var t Totals
	err := rows.Scan(&t.TimeWorked, &t.OriginalEstimate, &t.RemainingEstimate)
	return t, err
}
