package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/strataspec/strata/internal/contract"
	"github.com/strataspec/strata/internal/diag"
	"github.com/strataspec/strata/internal/engine"
	"github.com/strataspec/strata/internal/loader"
	"github.com/strataspec/strata/internal/nav"
	"github.com/strataspec/strata/internal/store"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Contract   string
	Record     string
	Groups     []string
	Extensions []string
}

// ValidateResult is the validate command's payload.
type ValidateResult struct {
	RunID       string            `json:"run_id"`
	Pass        bool              `json:"pass"`
	ErrorCount  int               `json:"error_count"`
	InfoCount   int               `json:"info_count"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate a layered specification tree",
		Long: `Validate a layered application specification for structural consistency.

Runs structural schema validation, navigation graph construction,
reachability analysis, cross-layer reference checks, external contract
resolution (when --contract is given) and the translation-key audit.

Exit codes:
  0 - Validation passed (no error-level diagnostics)
  1 - Validation failed (error-level diagnostics present)
  2 - Command error (directory not found, unreadable contract, etc.)

Examples:
  strata validate ./specs
  strata validate ./specs --contract ./api/openapi.yaml
  strata validate ./specs --record ./strata.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Contract, "contract", "", "path to the external API contract (YAML/JSON)")
	cmd.Flags().StringVar(&opts.Record, "record", "", "record the run in a SQLite history database")
	cmd.Flags().StringSliceVar(&opts.Groups, "groups", nil, "known structural groups (default built-in set)")
	cmd.Flags().StringSliceVar(&opts.Extensions, "ext", []string{".yaml", ".yml"}, "specification file extensions")

	return cmd
}

func runValidate(opts *ValidateOptions, specsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	docs, loadErrs := loader.Load(specsDir, opts.Extensions)
	if docs == nil && len(loadErrs) > 0 {
		if loadErr, ok := loadErrs[0].(*loader.LoadError); ok {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return NewExitError(ExitCommandError, loadErr.Error())
		}
		_ = formatter.Error("E_LOAD", loadErrs[0].Error(), nil)
		return NewExitError(ExitCommandError, loadErrs[0].Error())
	}
	formatter.VerboseLog("Loaded %d document(s) from %s", len(docs), specsDir)

	var contractDoc *contract.Document
	if opts.Contract != "" {
		data, err := os.ReadFile(opts.Contract)
		if err != nil {
			_ = formatter.Error("E_CONTRACT", err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read contract", err)
		}
		contractDoc, err = contract.Parse(data)
		if err != nil {
			_ = formatter.Error("E_CONTRACT", err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to parse contract", err)
		}
	}

	eng, err := engine.New()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize engine", err)
	}
	eng.Nav = nav.Config{Groups: opts.Groups}

	result := eng.Run(docs, contractDoc)

	report := result.Report
	// Per-file parse failures surface alongside the structural diagnostics.
	for _, err := range loadErrs {
		if loadErr, ok := err.(*loader.LoadError); ok {
			report.Add(diag.SectionStructural, diag.Errorf(diag.CodeBadDocument,
				map[string]any{"path": loadErr.Path, "code": loadErr.Code},
				"document %s could not be loaded: %s", loadErr.Path, loadErr.Message))
		}
	}

	payload := ValidateResult{
		RunID:       result.RunID,
		Pass:        report.OK(),
		ErrorCount:  len(report.Errors()),
		InfoCount:   len(report.Infos()),
		Diagnostics: report.All(),
	}

	if opts.Record != "" {
		if err := recordRun(specsDir, opts.Record, payload); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		formatter.VerboseLog("Recorded run %s in %s", payload.RunID, opts.Record)
	}

	return outputValidateResult(formatter, payload)
}

// recordRun persists the run in the history database.
func recordRun(specsDir, dbPath string, payload ValidateResult) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	return st.RecordRun(context.Background(), store.Run{
		ID:          payload.RunID,
		CreatedAt:   time.Now().UTC(),
		Root:        specsDir,
		Pass:        payload.Pass,
		ErrorCount:  payload.ErrorCount,
		InfoCount:   payload.InfoCount,
		Diagnostics: payload.Diagnostics,
	})
}

// outputValidateResult renders the report and maps pass/fail to the exit
// code.
func outputValidateResult(formatter *OutputFormatter, payload ValidateResult) error {
	if formatter.Format == "json" {
		response := CLIResponse{Status: "ok", Data: payload}
		if !payload.Pass {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    "E_VALIDATION",
				Message: fmt.Sprintf("validation failed with %d error(s)", payload.ErrorCount),
			}
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		if !payload.Pass {
			return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", payload.ErrorCount))
		}
		return nil
	}

	// Text format
	w := formatter.Writer
	for _, d := range payload.Diagnostics {
		fmt.Fprintln(w, d.String())
	}
	if len(payload.Diagnostics) > 0 {
		fmt.Fprintln(w)
	}

	if payload.Pass {
		fmt.Fprintf(w, "✓ Specification consistent (%d note(s))\n", payload.InfoCount)
		return nil
	}

	fmt.Fprintf(w, "✗ Validation failed: %d error(s), %d note(s)\n", payload.ErrorCount, payload.InfoCount)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", payload.ErrorCount))
}
