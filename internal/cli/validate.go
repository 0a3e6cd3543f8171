package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/worklens/internal/filter"
)

// FileValidation is the outcome of one filter file.
type FileValidation struct {
	Path        string    `json:"path"`
	Valid       bool      `json:"valid"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Error       *CLIError `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

func (r ValidationResult) Text(w io.Writer) error {
	for _, f := range r.Files {
		if f.Valid {
			fmt.Fprintf(w, "✓ %s (%s)\n", f.Path, f.Fingerprint)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", f.Path)
		if f.Error.Field != "" {
			fmt.Fprintf(w, "  [%s] %s: %s\n", f.Error.Code, f.Error.Field, f.Error.Message)
		} else {
			fmt.Fprintf(w, "  [%s] %s\n", f.Error.Code, f.Error.Message)
		}
	}
	return nil
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <filter-file>...",
		Short: "Validate filter files without running a query",
		Long: `Decode and validate YAML, JSON or CUE filter files.

Checks the project scope, sentinel choices, issue keys, date ranges, paging
and order column, and prints each valid filter's fingerprint. Filters with
equal fingerprints select the same population. No database is opened.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts.formatter(cmd), args)
		},
	}

	return cmd
}

func runValidate(out *OutputFormatter, paths []string) error {
	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}

	for _, path := range paths {
		out.VerboseLog("Validating %s", path)
		fv := FileValidation{Path: path}

		spec, err := filter.LoadFile(path)
		if err == nil {
			fv.Fingerprint, err = filter.Fingerprint(spec)
		}
		if err != nil {
			result.Valid = false
			fv.Error = validationError(err)
		} else {
			fv.Valid = true
		}
		result.Files = append(result.Files, fv)
	}

	if out.Format == "json" {
		if result.Valid {
			if err := out.Success(result); err != nil {
				return err
			}
		} else if err := out.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: ErrCodeInvalidFilter, Message: "one or more filters are invalid"},
		}); err != nil {
			return err
		}
	} else if err := result.Text(out.Writer); err != nil {
		return err
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "one or more filters are invalid")
	}
	return nil
}

func validationError(err error) *CLIError {
	var fe *filter.InvalidFilterError
	if errors.As(err, &fe) {
		return &CLIError{Code: string(fe.Code), Field: fe.Field, Message: fe.Message}
	}
	return &CLIError{Code: ErrCodeGeneric, Message: err.Error()}
}
