package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/worklens/internal/report"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	f := &FilterOptions{}

	cmd := &cobra.Command{
		Use:   "list <worklogs|issues|projects|users>",
		Short: "List report rows with their count and total",
		Long: `Run a report and print one page of rows, the number of rows the
unpaged report has and the grand total of the filtered population.

Examples:
  worklens list worklogs -p 10,20 --limit 50
  worklens list issues -f sprint.yaml --format json
  worklens list users -f sprint.cue`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			kind, err := report.ParseKind(args[0])
			if err != nil {
				return out.Fail(WrapExitError(ExitCommandError, "invalid report kind", err))
			}

			ctx := cmd.Context()
			s, err := rootOpts.open(ctx, cmd, nil)
			if err != nil {
				return out.Fail(err)
			}
			defer s.Close()

			spec, err := f.spec(ctx, cmd, s.engine)
			if err != nil {
				return out.Fail(err)
			}
			page, err := s.engine.Report(ctx, spec, kind)
			if err != nil {
				return out.Fail(err)
			}
			return out.Success(pageText{page})
		},
	}
	addFilterFlags(cmd, f, true)

	return cmd
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	f := &FilterOptions{}

	cmd := &cobra.Command{
		Use:   "count <worklogs|issues|projects|users>",
		Short: "Count the rows a report would return",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			kind, err := report.ParseKind(args[0])
			if err != nil {
				return out.Fail(WrapExitError(ExitCommandError, "invalid report kind", err))
			}

			ctx := cmd.Context()
			s, err := rootOpts.open(ctx, cmd, nil)
			if err != nil {
				return out.Fail(err)
			}
			defer s.Close()

			spec, err := f.spec(ctx, cmd, s.engine)
			if err != nil {
				return out.Fail(err)
			}
			n, err := s.engine.Count(ctx, spec, kind)
			if err != nil {
				return out.Fail(err)
			}
			if out.Format == "json" {
				return out.Success(map[string]any{"kind": kind, "count": n})
			}
			return out.Success(n)
		},
	}
	addFilterFlags(cmd, f, false)

	return cmd
}

// NewTotalCommand creates the total command.
func NewTotalCommand(rootOpts *RootOptions) *cobra.Command {
	f := &FilterOptions{}
	var breakdown string

	cmd := &cobra.Command{
		Use:   "total",
		Short: "Sum time worked and estimates, optionally broken down",
		Long: `Sum time worked, original estimate and remaining estimate over the
filtered population. With --by, one line per project, issue or user is
printed as well; the lines add up to the total.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			b, err := report.ParseBreakdown(breakdown)
			if err != nil {
				return out.Fail(WrapExitError(ExitCommandError, "invalid breakdown", err))
			}

			ctx := cmd.Context()
			s, err := rootOpts.open(ctx, cmd, nil)
			if err != nil {
				return out.Fail(err)
			}
			defer s.Close()

			spec, err := f.spec(ctx, cmd, s.engine)
			if err != nil {
				return out.Fail(err)
			}
			res, err := s.engine.Aggregate(ctx, spec, b)
			if err != nil {
				return out.Fail(err)
			}
			return out.Success(aggregateText{res})
		},
	}
	addFilterFlags(cmd, f, false)
	cmd.Flags().StringVar(&breakdown, "by", "", "breakdown (project|issue|user)")

	return cmd
}

// pageText renders a report page as a table.
type pageText struct {
	*report.Page
}

func (p pageText) Text(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	switch p.Kind {
	case report.KindWorklogs:
		fmt.Fprintln(tw, "ID\tISSUE\tAUTHOR\tSTART\tWORKED\tCOMPONENTS")
		for _, r := range p.Worklogs {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
				r.WorklogID, r.IssueKey, r.Author, r.Start.Format(time.DateOnly),
				seconds(r.TimeWorked), strings.Join(r.Components, ", "))
		}
	case report.KindIssues:
		fmt.Fprintln(tw, "KEY\tSUMMARY\tSTATUS\tWORKLOGS\tWORKED\tESTIMATE")
		for _, r := range p.Issues {
			est := "-"
			if r.OriginalEstimate != nil {
				est = seconds(*r.OriginalEstimate)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
				r.IssueKey, r.Summary, r.Status, r.Worklogs, seconds(r.TimeWorked), est)
		}
	default:
		writeGroups(tw, p.Groups)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d of %d %s\n", rows(p.Page), p.Count, p.Kind)
	writeTotals(w, p.Total)
	return nil
}

func rows(p *report.Page) int {
	return len(p.Worklogs) + len(p.Issues) + len(p.Groups)
}

// aggregateText renders totals and their breakdown.
type aggregateText struct {
	report.AggregateResult
}

func (a aggregateText) Text(w io.Writer) error {
	if a.Breakdown != report.BreakdownNone {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		writeGroups(tw, a.Groups)
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	writeTotals(w, a.Total)
	return nil
}

func writeGroups(w io.Writer, groups []report.GroupTotals) {
	fmt.Fprintln(w, "KEY\tNAME\tWORKED\tORIGINAL\tREMAINING")
	for _, g := range groups {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", g.Key, g.Label,
			seconds(g.TimeWorked), seconds(g.OriginalEstimate), seconds(g.RemainingEstimate))
	}
}

func writeTotals(w io.Writer, t report.Totals) {
	fmt.Fprintf(w, "Total: worked %s, original estimate %s, remaining %s\n",
		seconds(t.TimeWorked), seconds(t.OriginalEstimate), seconds(t.RemainingEstimate))
}

// seconds formats a duration in seconds as hours and minutes.
func seconds(n int64) string {
	d := time.Duration(n) * time.Second
	h := int64(d / time.Hour)
	m := int64((d % time.Hour) / time.Minute)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
