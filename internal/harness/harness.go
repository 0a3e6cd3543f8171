package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/roach88/worklens/internal/filter"
	"github.com/roach88/worklens/internal/report"
	"github.com/roach88/worklens/internal/store"
	"github.com/roach88/worklens/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs requests against a freshly seeded store with a fixed request id.
type Harness struct {
	engine *report.Engine
	logger zerolog.Logger
}

// RunOption configures a scenario run.
type RunOption func(*runConfig)

type runConfig struct {
	logger zerolog.Logger
}

// WithLogger routes engine and harness logs to l. The default discards them.
func WithLogger(l zerolog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh SQLite database under a temporary directory
// for isolation. A fixed request id keeps responses reproducible.
//
// Execution flow:
// 1. Create a fresh database and seed the scenario's dataset
// 2. Run every request in order, recording its response
// 3. Check each response against its expect clause and against the
// count/list agreement
// 4. Evaluate the scenario's assertions
//
// Expectation and assertion failures are collected in Result.Errors.
// A returned error means the scenario could not run at all.
func Run(ctx context.Context, scenario *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	ds := testutil.TrackerDataset()
	if scenario.Dataset != "" {
		var err error
		if ds, err = store.LoadDataset(scenario.Dataset); err != nil {
			return nil, fmt.Errorf("failed to load dataset: %w", err)
		}
	}

	dir, err := os.MkdirTemp("", "worklens-scenario-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(filepath.Join(dir, "scenario.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario store: %w", err)
	}
	defer st.Close()

	conv := scenario.Conventions.WithDefaults()
	if err := st.Seed(ctx, ds, conv); err != nil {
		return nil, fmt.Errorf("failed to seed dataset: %w", err)
	}

	h := &Harness{
		engine: report.New(st,
			report.WithConventions(conv),
			report.WithRequestIDs(testutil.NewFixedRequestID(scenario.RequestID)),
			report.WithLogger(cfg.logger),
		),
		logger: cfg.logger.With().Str("scenario", scenario.Name).Logger(),
	}

	result := NewResult()
	for i, req := range scenario.Requests {
		resp, err := h.execute(ctx, req, result)
		if err != nil {
			return nil, fmt.Errorf("request %d (%s): %w", i, req.Name, err)
		}
		result.Responses = append(result.Responses, resp)
		checkExpect(req, resp, result)

		h.logger.Debug().
			Str("request", req.Name).
			Str("op", resp.Op).
			Int64("count", resp.Count).
			Msg("scenario request completed")
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// execute runs one request. An invalid filter is a response, not an error.
func (h *Harness) execute(ctx context.Context, req Request, result *Result) (Response, error) {
	resp := Response{Request: req.Name, Op: req.op(), Keys: []string{}}

	spec, err := req.Filter.Spec()
	if err != nil {
		return rejected(resp, err)
	}

	if req.Report != "" {
		kind, err := report.ParseKind(req.Report)
		if err != nil {
			return resp, err
		}
		page, err := h.engine.Report(ctx, spec, kind)
		if err != nil {
			return rejected(resp, err)
		}
		resp.RequestID = page.RequestID
		resp.Fingerprint = page.Fingerprint
		resp.Keys = pageKeys(page)
		resp.Count = page.Count
		resp.Total = page.Total
		resp.Groups = page.Groups

		if err := h.checkAgreement(ctx, spec, kind, page.Count, resp.Keys); err != nil {
			if !report.IsInconsistentResult(err) {
				return resp, err
			}
			result.AddError(fmt.Sprintf("request %s: %v", req.Name, err))
		}
		return resp, nil
	}

	breakdown, err := report.ParseBreakdown(req.Aggregate)
	if err != nil {
		return resp, err
	}
	res, err := h.engine.Aggregate(ctx, spec, breakdown)
	if err != nil {
		return rejected(resp, err)
	}
	if resp.Fingerprint, err = filter.Fingerprint(spec); err != nil {
		return resp, err
	}
	for _, g := range res.Groups {
		resp.Keys = append(resp.Keys, g.Key)
	}
	resp.Count = int64(len(res.Groups))
	resp.Total = res.Total
	resp.Groups = res.Groups

	if breakdown != report.BreakdownNone {
		var sum report.Totals
		for _, g := range res.Groups {
			sum = sum.Add(g.Totals)
		}
		if sum != res.Total {
			result.AddError(fmt.Sprintf("request %s: groups sum to %+v, total is %+v", req.Name, sum, res.Total))
		}
	}
	return resp, nil
}

// checkAgreement compares the page's count with the distinct keys of the
// unbounded list. A paged request lists again without paging.
func (h *Harness) checkAgreement(ctx context.Context, spec filter.Spec, kind report.Kind, count int64, keys []string) error {
	if spec.Page != (filter.Page{}) {
		spec.Page = filter.Page{}
		page, err := h.engine.Report(ctx, spec, kind)
		if err != nil {
			return err
		}
		keys = pageKeys(page)
	}
	return report.CheckAgreement(kind, count, keys)
}

// rejected records an invalid filter on the response and passes every other
// error through.
func rejected(resp Response, err error) (Response, error) {
	var fe *filter.InvalidFilterError
	if errors.As(err, &fe) {
		resp.Error = string(fe.Code)
		return resp, nil
	}
	return resp, err
}

// pageKeys lists the primary keys of a page's rows in order.
func pageKeys(page *report.Page) []string {
	keys := []string{}
	switch page.Kind {
	case report.KindWorklogs:
		for _, r := range page.Worklogs {
			keys = append(keys, strconv.FormatInt(r.WorklogID, 10))
		}
	case report.KindIssues:
		for _, r := range page.Issues {
			keys = append(keys, r.IssueKey)
		}
	default:
		for _, g := range page.Groups {
			keys = append(keys, g.Key)
		}
	}
	return keys
}

// checkExpect validates a response against its request's expect clause.
func checkExpect(req Request, resp Response, result *Result) {
	exp := req.Expect
	if exp == nil || exp.Error == "" {
		if resp.Error != "" {
			result.AddError(fmt.Sprintf("request %s: filter rejected with %s", req.Name, resp.Error))
			return
		}
	}
	if exp == nil {
		return
	}

	if exp.Error != "" {
		if resp.Error != exp.Error {
			actual := resp.Error
			if actual == "" {
				actual = "success"
			}
			result.AddError(fmt.Sprintf("request %s: expected error %s, got %s", req.Name, exp.Error, actual))
		}
		return
	}

	if exp.Count != nil && *exp.Count != resp.Count {
		result.AddError(fmt.Sprintf("request %s: expected count %d, got %d", req.Name, *exp.Count, resp.Count))
	}
	if exp.Keys != nil && !slices.Equal(exp.Keys, resp.Keys) {
		result.AddError(fmt.Sprintf("request %s: expected keys %v, got %v", req.Name, exp.Keys, resp.Keys))
	}
	if exp.Total != nil && exp.Total.Totals() != resp.Total {
		result.AddError(fmt.Sprintf("request %s: expected total %+v, got %+v", req.Name, exp.Total.Totals(), resp.Total))
	}
}
