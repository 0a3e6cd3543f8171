package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/worklens/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // defaults to ../golden next to the scenarios directory
}

// TestResult is the suite result plus golden file outcomes.
type TestResult struct {
	*harness.SuiteResult
}

func (r TestResult) Text(w io.Writer) error {
	for _, s := range r.Scenarios {
		if s.Pass {
			fmt.Fprintf(w, "✓ %s\n", s.Name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total)
	if r.Failed == 0 {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
	return nil
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run report scenarios",
		Long: `Run YAML report scenarios against their seeded datasets.

Each scenario issues report and aggregate requests and checks their
expectations and cross-request assertions. When a golden file
<golden-dir>/<scenario>.golden exists, the responses must match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  worklens test ./testdata/scenarios
  worklens test ./testdata/scenarios --filter "paging*"
  worklens test ./testdata/scenarios --update
  worklens test ./testdata/scenarios --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden file directory")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	if _, err := os.Stat(dir); err != nil {
		return out.Fail(NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir)))
	}
	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = filepath.Join(filepath.Dir(filepath.Clean(dir)), "golden")
	}

	suite, err := harness.RunSuite(cmd.Context(), dir, opts.Filter)
	var none *harness.NoScenariosError
	if errors.As(err, &none) {
		suite = &harness.SuiteResult{Scenarios: []harness.ScenarioResult{}}
	} else if err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "failed to run scenarios", err))
	}

	for i := range suite.Scenarios {
		sr := &suite.Scenarios[i]
		if sr.Result == nil {
			continue
		}
		msg, err := checkGolden(goldenDir, sr, opts.Update)
		if err != nil {
			msg = err.Error()
		}
		if msg != "" && sr.Pass {
			sr.Pass = false
			suite.Passed--
			suite.Failed++
		}
		if msg != "" {
			sr.Errors = append(sr.Errors, msg)
		}
		out.VerboseLog("%s: %d responses", sr.Name, len(sr.Result.Responses))
	}

	result := TestResult{suite}
	if out.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if suite.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeTestFailed, Message: fmt.Sprintf("%d scenario(s) failed", suite.Failed)}
		}
		if err := out.encode(resp); err != nil {
			return err
		}
	} else if err := result.Text(out.Writer); err != nil {
		return err
	}

	if suite.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", suite.Failed))
	}
	return nil
}

// checkGolden compares a scenario's responses with its golden file, or
// rewrites the file when update is set. It returns a failure message, or ""
// when the responses match or no golden file exists.
func checkGolden(dir string, sr *harness.ScenarioResult, update bool) (string, error) {
	data, err := harness.MarshalSnapshot(sr.Name, sr.Result)
	if err != nil {
		return "", fmt.Errorf("failed to snapshot responses: %w", err)
	}
	path := filepath.Join(dir, sr.Name+".golden")

	if update {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return "", fmt.Errorf("failed to write golden file: %w", err)
		}
		return "", nil
	}

	golden, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(golden, data) {
		return "responses do not match golden file (run with --update to regenerate)", nil
	}
	return "", nil
}
