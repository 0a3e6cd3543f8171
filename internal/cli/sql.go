package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/worklens/internal/filter"
	"github.com/roach88/worklens/internal/queryir"
	"github.com/roach88/worklens/internal/querysql"
	"github.com/roach88/worklens/internal/report"
)

// SQLResult is a compiled query and its bind values.
type SQLResult struct {
	Dialect string `json:"dialect"`
	Query   string `json:"query"`
	Args    []any  `json:"args"`
}

func (r SQLResult) Text(w io.Writer) error {
	fmt.Fprintln(w, r.Query)
	for i, a := range r.Args {
		fmt.Fprintf(w, "-- $%d = %v\n", i+1, a)
	}
	return nil
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	f := &FilterOptions{}
	var (
		count     bool
		breakdown string
		dialect   string
	)

	cmd := &cobra.Command{
		Use:   "sql <worklogs|issues|projects|users>",
		Short: "Print the SQL a report would run",
		Long: `Compile a report's row query, or with --count its count query, or with
--aggregate its totals query, and print it with its bind values.
Nothing is executed. The dialect comes from database.driver unless
--dialect is given.

Examples:
  worklens sql worklogs -p 10 --limit 20
  worklens sql issues -f sprint.yaml --count
  worklens sql worklogs -p 10 --aggregate user --dialect postgres`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			kind, err := report.ParseKind(args[0])
			if err != nil {
				return out.Fail(WrapExitError(ExitCommandError, "invalid report kind", err))
			}

			cfg, err := rootOpts.loadConfig(nil)
			if err != nil {
				return out.Fail(err)
			}
			d := cfg.Dialect()
			if dialect != "" {
				if d, err = querysql.ParseDialect(dialect); err != nil {
					return out.Fail(WrapExitError(ExitCommandError, "invalid dialect", err))
				}
			}

			spec, err := f.build(cmd)
			if err != nil {
				return out.Fail(err)
			}
			if err := filter.Validate(spec); err != nil {
				return out.Fail(err)
			}

			var sel queryir.Select
			switch {
			case cmd.Flags().Changed("aggregate"):
				b, perr := report.ParseBreakdown(breakdown)
				if perr != nil {
					return out.Fail(WrapExitError(ExitCommandError, "invalid breakdown", perr))
				}
				sel, err = report.BuildAggregateQuery(spec, b, cfg.Epic)
			case count:
				sel, err = report.BuildCountQuery(spec, kind, cfg.Epic)
			default:
				sel, err = report.BuildListQuery(spec, kind, cfg.Epic)
			}
			if err != nil {
				return out.Fail(err)
			}

			query, bind, err := querysql.NewSQLCompiler(d).Compile(sel)
			if err != nil {
				return out.Fail(err)
			}
			if bind == nil {
				bind = []any{}
			}
			return out.Success(SQLResult{Dialect: d.String(), Query: query, Args: bind})
		},
	}
	addFilterFlags(cmd, f, true)
	cmd.Flags().BoolVar(&count, "count", false, "print the count query")
	cmd.Flags().StringVar(&breakdown, "aggregate", "", "print the totals query with this breakdown (none|project|issue|user)")
	cmd.Flags().StringVar(&dialect, "dialect", "", "SQL dialect (sqlite|postgres)")

	return cmd
}
