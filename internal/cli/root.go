package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/worklens/internal/config"
	"github.com/roach88/worklens/internal/logging"
	"github.com/roach88/worklens/internal/report"
	"github.com/roach88/worklens/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	DB         string

	// EnvFiles are loaded before the environment is read. Missing files are skipped.
	EnvFiles []string

	flags *pflag.FlagSet
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the worklens CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{EnvFiles: []string{".env"}}

	cmd := &cobra.Command{
		Use:   "worklens",
		Short: "worklens - worklog reports",
		Long: `Filter-driven worklog reports over an issue tracker database.

A filter selects the worklogs to report on; every report kind, count,
total and breakdown computed from one filter describes the same population.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default ./worklens.yaml)")
	pf.StringVar(&opts.DB, "db", "", "SQLite database path (overrides database.path)")
	opts.flags = pf

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewTotalCommand(opts))
	cmd.AddCommand(NewLinksCommand(opts))
	cmd.AddCommand(NewPickersCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSQLCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// loadConfig layers the config file, .env files, the environment and the
// global flags. extra binds command-specific flags to config keys.
func (o *RootOptions) loadConfig(extra map[string]*pflag.Flag) (*config.Config, error) {
	flags := map[string]*pflag.Flag{
		"database.path": o.lookup("db"),
		"log.verbose":   o.lookup("verbose"),
	}
	for k, f := range extra {
		flags[k] = f
	}

	opts := config.LoadOptions{
		ConfigFile: o.ConfigFile,
		EnvFiles:   o.EnvFiles,
		Flags:      flags,
	}
	if o.ConfigFile == "" {
		opts.SearchPaths = []string{"."}
	}

	cfg, err := config.Load(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

func (o *RootOptions) lookup(name string) *pflag.Flag {
	if o.flags == nil {
		return nil
	}
	f := o.flags.Lookup(name)
	if f == nil || !f.Changed {
		return nil
	}
	return f
}

// session is an opened store with an engine and logger over it.
type session struct {
	cfg    *config.Config
	store  *store.Store
	engine *report.Engine
	log    zerolog.Logger
	closer io.Closer
}

func (s *session) Close() error {
	err := s.store.Close()
	if cerr := s.closer.Close(); err == nil {
		err = cerr
	}
	return err
}

// open loads the config, builds the logger and opens the store.
// Diagnostics go to cmd's error stream so JSON output stays clean.
func (o *RootOptions) open(ctx context.Context, cmd *cobra.Command, extra map[string]*pflag.Flag) (*session, error) {
	cfg, err := o.loadConfig(extra)
	if err != nil {
		return nil, err
	}

	log, closer, err := logging.New(logging.Options{
		Verbose: cfg.Log.Verbose,
		Dir:     cfg.Log.Dir,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to set up logging", err)
	}

	st, err := cfg.OpenStore(ctx)
	if err != nil {
		closer.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	log.Debug().Str("driver", cfg.Database.Driver).Msg("database opened")

	e := report.New(st,
		report.WithLogger(log),
		report.WithConventions(cfg.Epic),
	)
	return &session{cfg: cfg, store: st, engine: e, log: log, closer: closer}, nil
}
