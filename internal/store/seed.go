package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/worklens/internal/schema"
)

const (
	defaultDirectoryID = 1
	epicLinkTypeID     = 1
	epicNameFieldID    = 1
)

// Seed writes a dataset in one transaction.
// Every insert uses ON CONFLICT DO NOTHING, so seeding the same dataset
// twice leaves the database unchanged.
//
// Epic links are written as issuelink rows whose source is the epic and
// whose destination is the story, under the conventions' link type name.
// Epic names are written as custom field values of the conventions' field.
func (s *Store) Seed(ctx context.Context, ds Dataset, conv schema.Conventions) error {
	conv = conv.WithDefaults()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	w := &seedWriter{ctx: ctx, tx: tx, s: s}

	dirs := ds.Directories
	if len(dirs) == 0 {
		dirs = []Directory{{ID: defaultDirectoryID, Name: "Internal", Position: 0}}
	}
	for _, d := range dirs {
		w.exec(`INSERT INTO cwd_directory (id, directory_name, directory_position) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
			d.ID, d.Name, d.Position)
	}

	for _, p := range ds.Projects {
		w.exec(`INSERT INTO project (id, pkey, pname, description) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
			p.ID, p.Key, p.Name, nullString(p.Description))
	}

	constants := []struct {
		table string
		rows  []Constant
	}{
		{"issuetype", ds.IssueTypes},
		{"issuestatus", ds.Statuses},
		{"priority", ds.Priorities},
		{"resolution", ds.Resolutions},
	}
	for _, c := range constants {
		for _, row := range c.rows {
			w.exec(`INSERT INTO ` + c.table + ` (id, pname, iconurl, sequence) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
				row.ID, row.Name, nullString(row.IconURL), row.Sequence)
		}
	}

	for _, u := range ds.Users {
		login := strings.ToLower(u.Login)
		w.exec(`INSERT INTO app_user (id, user_key, lower_user_name) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
			u.ID, u.Key, login)
		if u.DisplayName == "" {
			continue
		}
		dir := u.Directory
		if dir == 0 {
			dir = dirs[0].ID
		}
		active := 1
		if u.Inactive {
			active = 0
		}
		w.exec(`INSERT INTO cwd_user (id, directory_id, user_name, lower_user_name, display_name, active) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
			u.ID, dir, u.Login, login, u.DisplayName, active)
	}

	for _, a := range ds.Accounts {
		w.exec(`INSERT INTO cwd_user (id, directory_id, user_name, lower_user_name, display_name, active) VALUES (?, ?, ?, ?, ?, 1) ON CONFLICT DO NOTHING`,
			a.ID, a.Directory, a.Login, strings.ToLower(a.Login), a.DisplayName)
	}

	for _, c := range ds.Components {
		w.exec(`INSERT INTO component (id, project, cname) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
			c.ID, c.Project, c.Name)
	}

	for _, v := range ds.Versions {
		var released any
		if v.Released {
			released = schema.Released
		}
		w.exec(`INSERT INTO projectversion (id, project, vname, released, sequence) VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
			v.ID, v.Project, v.Name, released, v.Sequence)
	}

	w.exec(`INSERT INTO issuelinktype (id, linkname) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		epicLinkTypeID, conv.EpicLinkType)
	w.exec(`INSERT INTO customfield (id, cfname) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		epicNameFieldID, conv.EpicNameField)

	var labelID, linkID, valueID int64
	for _, is := range ds.Issues {
		created := is.Created.UTC()
		updated := is.Updated.UTC()
		if is.Updated.IsZero() {
			updated = created
		}
		w.exec(`INSERT INTO jiraissue (id, issuenum, project, summary, issuetype, issuestatus, priority, resolution, assignee, reporter, created, updated, timeoriginalestimate, timeestimate) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
			is.ID, is.Number, is.Project, is.Summary, is.Type, is.Status, is.Priority,
			nullString(is.Resolution), nullString(is.Assignee), nullString(is.Reporter),
			created, updated, nullInt(is.OriginalEstimate), nullInt(is.RemainingEstimate))

		assocs := []struct {
			kind, entity string
			ids          []int64
		}{
			{schema.AssocComponent, schema.EntityComponent, is.Components},
			{schema.AssocAffectsVersion, schema.EntityVersion, is.AffectedVersions},
			{schema.AssocFixVersion, schema.EntityVersion, is.FixVersions},
		}
		for _, a := range assocs {
			for seq, sink := range a.ids {
				w.exec(`INSERT INTO nodeassociation (source_node_id, source_node_entity, sink_node_id, sink_node_entity, association_type, sequence) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
					is.ID, schema.EntityIssue, sink, a.entity, a.kind, int64(seq))
			}
		}

		for _, l := range is.Labels {
			labelID++
			w.exec(`INSERT INTO label (id, issue, label) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
				labelID, is.ID, l)
		}

		if is.Epic != 0 {
			linkID++
			w.exec(`INSERT INTO issuelink (id, linktype, source, destination) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
				linkID, epicLinkTypeID, is.Epic, is.ID)
		}
		if is.EpicName != "" {
			valueID++
			w.exec(`INSERT INTO customfieldvalue (id, issue, customfield, stringvalue) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
				valueID, is.ID, epicNameFieldID, is.EpicName)
		}
	}

	for _, wl := range ds.Worklogs {
		start := wl.Start.UTC()
		created := wl.Created.UTC()
		if wl.Created.IsZero() {
			created = start
		}
		updated := wl.Updated.UTC()
		if wl.Updated.IsZero() {
			updated = created
		}
		w.exec(`INSERT INTO worklog (id, issueid, author, worklogbody, created, updated, startdate, timeworked) VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
			wl.ID, wl.Issue, wl.Author, nullString(wl.Body), created, updated, start, wl.Seconds)
	}

	if w.err != nil {
		return fmt.Errorf("seed: %w", w.err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}
	return nil
}

// seedWriter keeps the first error and skips later statements.
type seedWriter struct {
	ctx context.Context
	tx  *sql.Tx
	s   *Store
	err error
}

func (w *seedWriter) exec(query string, args ...any) {
	if w.err != nil {
		return
	}
	if _, err := w.tx.ExecContext(w.ctx, w.s.rebind(query), args...); err != nil {
		w.err = err
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

