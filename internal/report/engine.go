package report

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/worklens/internal/filter"
	"github.com/roach88/worklens/internal/ir"
	"github.com/roach88/worklens/internal/queryir"
	"github.com/roach88/worklens/internal/querysql"
	"github.com/roach88/worklens/internal/schema"
)

// Querier runs compiled SQL. Implemented by *store.Store.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Engine executes report queries against a Querier.
//
// The engine holds only immutable configuration and is safe for concurrent
// use. Every call builds fresh queries from its spec; nothing is cached or
// shared between requests.
//
// Invalid specs are rejected with *filter.InvalidFilterError before any
// query runs. Storage failures, cancellation included, surface as a single
// *QueryExecutionError and never as partial results.
type Engine struct {
	q        Querier
	compiler *querysql.SQLCompiler
	conv     schema.Conventions
	log      zerolog.Logger
	ids      RequestIDGenerator
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithDialect overrides the SQL dialect. By default the dialect comes from
// the Querier's Dialect method, or SQLite if it has none.
func WithDialect(d querysql.Dialect) Option {
	return func(e *Engine) {
		e.compiler = querysql.NewSQLCompiler(d)
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithRequestIDs sets the request id generator. Default: UUIDv7Generator.
func WithRequestIDs(g RequestIDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithClock sets the clock used to time queries. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithConventions sets the epic link type and epic name field.
// Empty names keep their defaults.
func WithConventions(c schema.Conventions) Option {
	return func(e *Engine) {
		e.conv = c.WithDefaults()
	}
}

// New creates an Engine reading through q.
func New(q Querier, opts ...Option) *Engine {
	d := querysql.SQLite
	if dq, ok := q.(interface{ Dialect() querysql.Dialect }); ok {
		d = dq.Dialect()
	}

	e := &Engine{
		q:        q,
		compiler: querysql.NewSQLCompiler(d),
		conv:     schema.DefaultConventions(),
		log:      zerolog.Nop(),
		ids:      UUIDv7Generator{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Conventions returns the epic conventions in effect.
func (e *Engine) Conventions() schema.Conventions {
	return e.conv
}

// Compile renders a query in the engine's dialect.
func (e *Engine) Compile(sel queryir.Select) (string, []any, error) {
	return e.compiler.Compile(sel)
}

// request carries the per-request logger.
type request struct {
	id  string
	log zerolog.Logger
}

func (e *Engine) begin(op string, spec *filter.Spec) request {
	id := e.ids.Generate()
	req := request{id: id, log: e.log.With().Str("request_id", id).Logger()}

	ev := req.log.Info().Str("op", op)
	if spec != nil {
		if fp, err := filter.Fingerprint(*spec); err == nil {
			ev = ev.Str("filter", fp)
		}
	}
	ev.Msg("report request")
	return req
}

// primary runs a query over the base relation after checking it joins no
// many-valued table.
func (e *Engine) primary(ctx context.Context, req request, op string, sel queryir.Select, scan func(*sql.Rows) error) error {
	if res := queryir.Validate(sel, manyValuedTables...); !res.IsSafe {
		return &QueryExecutionError{Op: op, Err: fmt.Errorf("unsafe query: %s", strings.Join(res.Warnings, "; "))}
	}
	return e.run(ctx, req, op, sel, scan)
}

// run compiles and executes sel, calling scan once per row.
func (e *Engine) run(ctx context.Context, req request, op string, sel queryir.Select, scan func(*sql.Rows) error) error {
	query, args, err := e.compiler.Compile(sel)
	if err != nil {
		return &QueryExecutionError{Op: op, Err: fmt.Errorf("compile: %w", err)}
	}

	start := e.now()
	rows, err := e.q.Query(ctx, query, args...)
	if err != nil {
		return &QueryExecutionError{Op: op, Err: err}
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		if err := scan(rows); err != nil {
			return &QueryExecutionError{Op: op, Err: fmt.Errorf("scan: %w", err)}
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return &QueryExecutionError{Op: op, Err: err}
	}

	req.log.Debug().
		Str("op", op).
		Str("statement", ir.StatementHash(query)).
		Int("params", len(args)).
		Int("rows", n).
		Dur("duration", e.now().Sub(start)).
		Msg("query executed")
	return nil
}

// WorklogDetails returns the worklog detail rows of spec, with components
// and versions attached.
func (e *Engine) WorklogDetails(ctx context.Context, spec filter.Spec) ([]WorklogRow, error) {
	return e.worklogs(ctx, e.begin("worklogs", &spec), spec)
}

func (e *Engine) worklogs(ctx context.Context, req request, spec filter.Spec) ([]WorklogRow, error) {
	sel, err := BuildListQuery(spec, KindWorklogs, e.conv)
	if err != nil {
		return nil, err
	}

	rows := []WorklogRow{}
	err = e.primary(ctx, req, "list worklogs", sel, func(r *sql.Rows) error {
		row, err := scanWorklogRow(r)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.IssueID
	}
	links, err := e.resolveAll(ctx, req, ids)
	if err != nil {
		return nil, err
	}
	return MergeLinks(rows, links, func(r WorklogRow) int64 { return r.IssueID }, attachWorklog), nil
}

// IssueSummaries returns one row per issue with matching worklogs.
func (e *Engine) IssueSummaries(ctx context.Context, spec filter.Spec) ([]IssueRow, error) {
	return e.issues(ctx, e.begin("issues", &spec), spec)
}

func (e *Engine) issues(ctx context.Context, req request, spec filter.Spec) ([]IssueRow, error) {
	sel, err := BuildListQuery(spec, KindIssues, e.conv)
	if err != nil {
		return nil, err
	}

	rows := []IssueRow{}
	err = e.primary(ctx, req, "list issues", sel, func(r *sql.Rows) error {
		row, err := scanIssueRow(r)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.IssueID
	}
	links, err := e.resolveAll(ctx, req, ids)
	if err != nil {
		return nil, err
	}
	return MergeLinks(rows, links, func(r IssueRow) int64 { return r.IssueID }, attachIssue), nil
}

// ProjectSummaries returns the time totals of each project with matching worklogs.
func (e *Engine) ProjectSummaries(ctx context.Context, spec filter.Spec) ([]GroupTotals, error) {
	return e.groups(ctx, e.begin("projects", &spec), spec, KindProjects)
}

// UserSummaries returns the time totals of each worklog author.
func (e *Engine) UserSummaries(ctx context.Context, spec filter.Spec) ([]GroupTotals, error) {
	return e.groups(ctx, e.begin("users", &spec), spec, KindUsers)
}

func (e *Engine) groups(ctx context.Context, req request, spec filter.Spec, kind Kind) ([]GroupTotals, error) {
	sel, err := BuildListQuery(spec, kind, e.conv)
	if err != nil {
		return nil, err
	}

	groups := []GroupTotals{}
	err = e.primary(ctx, req, "list "+kind.String(), sel, func(r *sql.Rows) error {
		g, err := scanGroupTotals(r)
		if err != nil {
			return err
		}
		groups = append(groups, g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// Count returns the number of distinct rows the unbounded list of kind holds.
func (e *Engine) Count(ctx context.Context, spec filter.Spec, kind Kind) (int64, error) {
	return e.count(ctx, e.begin("count "+kind.String(), &spec), spec, kind)
}

func (e *Engine) count(ctx context.Context, req request, spec filter.Spec, kind Kind) (int64, error) {
	sel, err := BuildCountQuery(spec, kind, e.conv)
	if err != nil {
		return 0, err
	}

	var n int64
	err = e.primary(ctx, req, "count "+kind.String(), sel, func(r *sql.Rows) error {
		return r.Scan(&n)
	})
	return n, err
}

// Aggregate returns the time totals of spec, optionally broken down.
func (e *Engine) Aggregate(ctx context.Context, spec filter.Spec, breakdown Breakdown) (AggregateResult, error) {
	return e.aggregate(ctx, e.begin("aggregate "+breakdown.String(), &spec), spec, breakdown)
}

func (e *Engine) aggregate(ctx context.Context, req request, spec filter.Spec, breakdown Breakdown) (AggregateResult, error) {
	sel, err := BuildAggregateQuery(spec, breakdown, e.conv)
	if err != nil {
		return AggregateResult{}, err
	}

	res := AggregateResult{Breakdown: breakdown, Groups: []GroupTotals{}}
	op := "aggregate " + breakdown.String()

	if breakdown == BreakdownNone {
		err = e.primary(ctx, req, op, sel, func(r *sql.Rows) error {
			t, err := scanTotals(r)
			res.Total = t
			return err
		})
		return res, err
	}

	err = e.primary(ctx, req, op, sel, func(r *sql.Rows) error {
		g, err := scanGroupTotals(r)
		if err != nil {
			return err
		}
		res.Groups = append(res.Groups, g)
		res.Total = res.Total.Add(g.Totals)
		return nil
	})
	if err != nil {
		return AggregateResult{}, err
	}
	return res, nil
}

// ResolveLinks returns the names of one link kind for each issue that has
// any, in association order. Issues without links are absent from the map.
// No ids means no query and an empty map.
func (e *Engine) ResolveLinks(ctx context.Context, kind LinkKind, issueIDs []int64) (map[int64][]string, error) {
	return e.resolve(ctx, e.begin("links "+kind.String(), nil), kind, issueIDs)
}

func (e *Engine) resolve(ctx context.Context, req request, kind LinkKind, issueIDs []int64) (map[int64][]string, error) {
	out := map[int64][]string{}
	op := "links " + kind.String()

	for _, batch := range LinkBatches(issueIDs) {
		sel, err := BuildLinkQuery(kind, batch)
		if err != nil {
			return nil, err
		}
		err = e.run(ctx, req, op, sel, func(r *sql.Rows) error {
			var id int64
			var name string
			if err := r.Scan(&id, &name); err != nil {
				return err
			}
			out[id] = append(out[id], name)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ResolveAllLinks resolves every link kind concurrently.
// If any kind fails the others are cancelled and the first error is returned.
func (e *Engine) ResolveAllLinks(ctx context.Context, issueIDs []int64) (Links, error) {
	return e.resolveAll(ctx, e.begin("links", nil), issueIDs)
}

func (e *Engine) resolveAll(ctx context.Context, req request, issueIDs []int64) (Links, error) {
	kinds := LinkKinds()
	results := make([]map[int64][]string, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			m, err := e.resolve(gctx, req, kind, issueIDs)
			results[i] = m
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	links := Links{}
	for i, kind := range kinds {
		links[kind] = results[i]
	}
	return links, nil
}

// Page is one report request's answer: the rows of the requested kind, the
// count of the unbounded list and the grand total.
type Page struct {
	RequestID   string        `json:"request_id"`
	Kind        Kind          `json:"kind"`
	Fingerprint string        `json:"fingerprint"`
	Worklogs    []WorklogRow  `json:"worklogs,omitempty"`
	Issues      []IssueRow    `json:"issues,omitempty"`
	Groups      []GroupTotals `json:"groups,omitempty"`
	Count       int64         `json:"count"`
	Total       Totals        `json:"total"`
}

// Report runs the list, count and total of one request concurrently.
// The first failure cancels the rest and is returned alone.
func (e *Engine) Report(ctx context.Context, spec filter.Spec, kind Kind) (*Page, error) {
	if err := filter.Validate(spec); err != nil {
		return nil, err
	}
	fp, err := filter.Fingerprint(spec)
	if err != nil {
		return nil, fmt.Errorf("fingerprint filter: %w", err)
	}
	req := e.begin("report "+kind.String(), &spec)
	page := &Page{RequestID: req.id, Kind: kind, Fingerprint: fp}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		switch kind {
		case KindWorklogs:
			page.Worklogs, err = e.worklogs(gctx, req, spec)
		case KindIssues:
			page.Issues, err = e.issues(gctx, req, spec)
		case KindProjects, KindUsers:
			page.Groups, err = e.groups(gctx, req, spec, kind)
		default:
			err = fmt.Errorf("unknown report kind %d", int(kind))
		}
		return err
	})
	g.Go(func() error {
		n, err := e.count(gctx, req, spec, kind)
		page.Count = n
		return err
	})
	g.Go(func() error {
		res, err := e.aggregate(gctx, req, spec, BreakdownNone)
		page.Total = res.Total
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, nil
}

// Projects lists every project.
func (e *Engine) Projects(ctx context.Context) ([]ProjectOption, error) {
	req := e.begin("pickers projects", nil)
	out := []ProjectOption{}
	err := e.run(ctx, req, "pickers projects", projectsQuery(), func(r *sql.Rows) error {
		var p ProjectOption
		if err := r.Scan(&p.ID, &p.Key, &p.Name); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Components offers "no component" and the component names of the projects.
func (e *Engine) Components(ctx context.Context, projectIDs []int64) ([]PickerOption, error) {
	if len(projectIDs) == 0 {
		return nil, filter.NewNoProjectScopeError()
	}
	opts := sentinelOptions("No component", componentDim.sentinels)
	return e.options(ctx, "pickers components", nameQuery("component", "cname", projectIDs), opts, false)
}

// Versions offers the version sentinels of kind and the version names of
// the projects. Kind must be LinkAffectedVersions or LinkFixVersions.
func (e *Engine) Versions(ctx context.Context, kind LinkKind, projectIDs []int64) ([]PickerOption, error) {
	if len(projectIDs) == 0 {
		return nil, filter.NewNoProjectScopeError()
	}
	offered, err := versionSentinels(kind)
	if err != nil {
		return nil, err
	}
	opts := sentinelOptions("No version", offered)
	return e.options(ctx, "pickers "+kind.String(), nameQuery("projectversion", "vname", projectIDs), opts, false)
}

// Users offers users of the projects. The assignee picker lists assignee
// keys after an "Unassigned" option; otherwise worklog author logins are
// listed, which is what the worklog author filter accepts.
func (e *Engine) Users(ctx context.Context, projectIDs []int64, assignees bool) ([]PickerOption, error) {
	if len(projectIDs) == 0 {
		return nil, filter.NewNoProjectScopeError()
	}
	if assignees {
		opts := sentinelOptions("Unassigned", filter.Missing)
		return e.options(ctx, "pickers assignees", assigneeQuery(projectIDs), opts, true)
	}
	return e.options(ctx, "pickers authors", authorQuery(projectIDs), []PickerOption{}, true)
}

// EpicLinks offers the epics of the projects by issue id.
func (e *Engine) EpicLinks(ctx context.Context, projectIDs []int64) ([]PickerOption, error) {
	if len(projectIDs) == 0 {
		return nil, filter.NewNoProjectScopeError()
	}
	req := e.begin("pickers epics", nil)
	opts := []PickerOption{}
	err := e.run(ctx, req, "pickers epics", epicQuery(projectIDs, e.conv.EpicNameField), func(r *sql.Rows) error {
		var id int64
		var key, name string
		if err := r.Scan(&id, &key, nullString{&name}); err != nil {
			return err
		}
		opts = append(opts, PickerOption{Value: formatID(id), Label: epicLabel(key, name)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return opts, nil
}

// options appends value options read from sel. With labelled set, sel
// yields (value, label); otherwise the value doubles as its label.
func (e *Engine) options(ctx context.Context, op string, sel queryir.Select, opts []PickerOption, labelled bool) ([]PickerOption, error) {
	req := e.begin(op, nil)
	if opts == nil {
		opts = []PickerOption{}
	}
	err := e.run(ctx, req, op, sel, func(r *sql.Rows) error {
		var o PickerOption
		if labelled {
			if err := r.Scan(&o.Value, nullString{&o.Label}); err != nil {
				return err
			}
		} else {
			if err := r.Scan(&o.Value); err != nil {
				return err
			}
			o.Label = o.Value
		}
		opts = append(opts, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return opts, nil
}
