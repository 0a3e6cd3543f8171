package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/worklens/internal/filter"
	"github.com/roach88/worklens/internal/report"
)

// Pickers lists the picker names accepted by the pickers command.
var Pickers = []string{"projects", "components", "affected_versions", "fix_versions", "assignees", "authors", "epics"}

// NewPickersCommand creates the pickers command.
func NewPickersCommand(rootOpts *RootOptions) *cobra.Command {
	var projects []int64

	cmd := &cobra.Command{
		Use:   "pickers <picker>",
		Short: "List the choices a filter dimension offers",
		Long: fmt.Sprintf(`List the values and special choices a filter dimension offers within
the given projects, or within every project when none is given.

Pickers: %v`, Pickers),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)

			ctx := cmd.Context()
			s, err := rootOpts.open(ctx, cmd, nil)
			if err != nil {
				return out.Fail(err)
			}
			defer s.Close()

			all, err := s.engine.Projects(ctx)
			if err != nil {
				return out.Fail(err)
			}
			if args[0] == "projects" {
				return out.Success(projectsText(all))
			}

			ids := make([]int64, len(all))
			for i, p := range all {
				ids[i] = p.ID
			}
			scoped, _ := filter.Scope(projects, ids)

			var opts []report.PickerOption
			switch args[0] {
			case "components":
				opts, err = s.engine.Components(ctx, scoped)
			case "affected_versions":
				opts, err = s.engine.Versions(ctx, report.LinkAffectedVersions, scoped)
			case "fix_versions":
				opts, err = s.engine.Versions(ctx, report.LinkFixVersions, scoped)
			case "assignees":
				opts, err = s.engine.Users(ctx, scoped, true)
			case "authors":
				opts, err = s.engine.Users(ctx, scoped, false)
			case "epics":
				opts, err = s.engine.EpicLinks(ctx, scoped)
			default:
				return out.Fail(NewExitError(ExitCommandError, fmt.Sprintf("unknown picker %q: must be one of %v", args[0], Pickers)))
			}
			if err != nil {
				return out.Fail(err)
			}
			return out.Success(optionsText(opts))
		},
	}
	cmd.Flags().Int64SliceVarP(&projects, "project", "p", nil, "project ids")

	return cmd
}

type projectsText []report.ProjectOption

func (p projectsText) Text(w io.Writer) error {
	for _, o := range p {
		fmt.Fprintf(w, "%d\t%s\t%s\n", o.ID, o.Key, o.Name)
	}
	return nil
}

type optionsText []report.PickerOption

func (o optionsText) Text(w io.Writer) error {
	for _, opt := range o {
		if opt.Sentinel != 0 {
			fmt.Fprintf(w, "[%s]\t%s\n", opt.SentinelName(), opt.Label)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", opt.Value, opt.Label)
	}
	return nil
}
