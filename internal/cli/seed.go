package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/worklens/internal/store"
)

// SeedResult summarizes a seeded dataset.
type SeedResult struct {
	Dataset  string `json:"dataset"`
	Projects int    `json:"projects"`
	Issues   int    `json:"issues"`
	Worklogs int    `json:"worklogs"`
}

func (r SeedResult) String() string {
	return fmt.Sprintf("Seeded %s: %d projects, %d issues, %d worklogs", r.Dataset, r.Projects, r.Issues, r.Worklogs)
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <dataset.yaml>",
		Short: "Load a YAML dataset into the database",
		Long: `Load a YAML dataset of projects, issues, links and worklogs into the
configured database. Rows whose id already exists are left alone, so
seeding the same dataset twice leaves the database unchanged. Epic
links and epic names are written under the configured epic conventions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)

			ds, err := store.LoadDataset(args[0])
			if err != nil {
				return out.Fail(WrapExitError(ExitCommandError, "failed to load dataset", err))
			}

			ctx := cmd.Context()
			s, err := rootOpts.open(ctx, cmd, nil)
			if err != nil {
				return out.Fail(err)
			}
			defer s.Close()

			if err := s.store.Seed(ctx, ds, s.cfg.Epic); err != nil {
				return out.Fail(err)
			}
			s.log.Info().Str("dataset", args[0]).Int("worklogs", len(ds.Worklogs)).Msg("dataset seeded")

			return out.Success(SeedResult{
				Dataset:  args[0],
				Projects: len(ds.Projects),
				Issues:   len(ds.Issues),
				Worklogs: len(ds.Worklogs),
			})
		},
	}

	return cmd
}
