package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/worklens/internal/filter"
	"github.com/roach88/worklens/internal/report"
)

// FilterOptions are the flags that select a report population.
type FilterOptions struct {
	File     string
	Projects []int64
	Offset   int64
	Limit    int64
	OrderBy  string
	Desc     bool
}

// addFilterFlags registers the filter flags. Paging flags are added only
// for commands that return rows.
func addFilterFlags(cmd *cobra.Command, f *FilterOptions, paging bool) {
	cmd.Flags().StringVarP(&f.File, "filter", "f", "", "filter file (.yaml, .json or .cue)")
	cmd.Flags().Int64SliceVarP(&f.Projects, "project", "p", nil, "project ids (overrides the filter file)")
	if paging {
		cmd.Flags().Int64Var(&f.Offset, "offset", 0, "rows to skip")
		cmd.Flags().Int64Var(&f.Limit, "limit", 0, "maximum rows (0 = all)")
		cmd.Flags().StringVar(&f.OrderBy, "order-by", "", "leading sort column of worklog rows")
		cmd.Flags().BoolVar(&f.Desc, "desc", false, "sort the order-by column descending")
	}
}

// spec builds the filter from the file and flags, then narrows its projects
// to the ones in the store. With no project given, every project is used.
func (f *FilterOptions) spec(ctx context.Context, cmd *cobra.Command, e *report.Engine) (filter.Spec, error) {
	spec, err := f.build(cmd)
	if err != nil {
		return filter.Spec{}, err
	}

	projects, err := e.Projects(ctx)
	if err != nil {
		return filter.Spec{}, err
	}
	browsable := make([]int64, len(projects))
	for i, p := range projects {
		browsable[i] = p.ID
	}
	spec.ProjectIDs, _ = filter.Scope(spec.ProjectIDs, browsable)

	if err := filter.Validate(spec); err != nil {
		return filter.Spec{}, err
	}
	return spec, nil
}

// build applies the flags over the filter file without validating.
func (f *FilterOptions) build(cmd *cobra.Command) (filter.Spec, error) {
	var spec filter.Spec
	if f.File != "" {
		s, err := filter.LoadFile(f.File)
		if err != nil {
			return filter.Spec{}, err
		}
		spec = s
	}

	if len(f.Projects) > 0 {
		spec.ProjectIDs = f.Projects
	}
	if flagChanged(cmd, "offset") {
		spec.Page.Offset = f.Offset
	}
	if flagChanged(cmd, "limit") {
		spec.Page.Limit = f.Limit
	}
	if flagChanged(cmd, "order-by") {
		col, err := filter.ParseColumn(f.OrderBy)
		if err != nil {
			return filter.Spec{}, filter.NewMalformedError("order", "%v", err)
		}
		spec.Order.Column = col
	}
	if flagChanged(cmd, "desc") {
		spec.Order.Desc = f.Desc
	}
	return spec, nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}
