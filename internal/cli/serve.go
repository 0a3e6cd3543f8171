package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/worklens/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report API over HTTP",
		Long: `Serve reports, totals, links and pickers as a JSON HTTP API until
interrupted. Every caller may browse every project in the database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var addrFlag *pflag.Flag
			if f := cmd.Flags().Lookup("addr"); f.Changed {
				addrFlag = f
			}
			s, err := rootOpts.open(ctx, cmd, map[string]*pflag.Flag{"http.addr": addrFlag})
			if err != nil {
				return out.Fail(err)
			}
			defer s.Close()

			srv := server.New(s.engine,
				server.WithLogger(s.log),
				server.WithMaxLimit(s.cfg.Report.MaxLimit),
				server.WithReleaseMode(),
			)
			if err := srv.ListenAndServe(ctx, s.cfg.HTTP.Addr); err != nil {
				return out.Fail(WrapExitError(ExitCommandError, "server failed", err))
			}
			s.log.Info().Msg("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")

	return cmd
}
