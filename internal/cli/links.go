package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/worklens/internal/report"
)

// NewLinksCommand creates the links command.
func NewLinksCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links <components|affected_versions|fix_versions|all> <issue-id>...",
		Short: "Resolve the component and version names of issues",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)

			kinds := report.LinkKinds()
			if args[0] != "all" {
				k, err := report.ParseLinkKind(args[0])
				if err != nil {
					return out.Fail(WrapExitError(ExitCommandError, "invalid link kind", err))
				}
				kinds = []report.LinkKind{k}
			}

			ids := make([]int64, 0, len(args)-1)
			for _, a := range args[1:] {
				id, err := strconv.ParseInt(a, 10, 64)
				if err != nil {
					return out.Fail(WrapExitError(ExitCommandError, fmt.Sprintf("invalid issue id %q", a), err))
				}
				ids = append(ids, id)
			}

			ctx := cmd.Context()
			s, err := rootOpts.open(ctx, cmd, nil)
			if err != nil {
				return out.Fail(err)
			}
			defer s.Close()

			var links report.Links
			if len(kinds) == 1 {
				m, err := s.engine.ResolveLinks(ctx, kinds[0], ids)
				if err != nil {
					return out.Fail(err)
				}
				links = report.Links{kinds[0]: m}
			} else {
				if links, err = s.engine.ResolveAllLinks(ctx, ids); err != nil {
					return out.Fail(err)
				}
			}
			return out.Success(linksText{links: links, kinds: kinds, ids: ids})
		},
	}

	return cmd
}

// linksText prints one line per issue and link kind.
type linksText struct {
	links report.Links
	kinds []report.LinkKind
	ids   []int64
}

func (l linksText) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.links)
}

func (l linksText) Text(w io.Writer) error {
	ids := slices.Clone(l.ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	for _, id := range ids {
		for _, k := range l.kinds {
			fmt.Fprintf(w, "%d\t%s\t%s\n", id, k, strings.Join(l.links.Names(k, id), ", "))
		}
	}
	return nil
}
